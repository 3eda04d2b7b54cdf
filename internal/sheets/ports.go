// Package sheets defines the outbound port used to mirror payments into a
// spreadsheet, plus an in-memory implementation.
package sheets

import (
	"context"

	"paytrack/internal/core"
)

// PaymentExporter mirrors payments into an external sheet keyed by payment ID.
type PaymentExporter interface {
	// Upsert writes d, replacing any row that already carries d.ID.
	Upsert(ctx context.Context, d core.PaymentDetails) error
	// UpsertAll writes every payment in ds in one pass.
	UpsertAll(ctx context.Context, ds []core.PaymentDetails) error
	// Delete removes the row for id. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error
	// IDs lists the payment IDs currently present in the sheet.
	IDs(ctx context.Context) ([]string, error)
}

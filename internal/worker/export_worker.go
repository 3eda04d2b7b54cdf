package worker

import (
	"context"
	"fmt"
	"log/slog"

	"paytrack/internal/amqp"
	"paytrack/internal/core"
	"paytrack/internal/sheets"
	"paytrack/internal/store"
)

// ExportWorker mirrors payment events into a spreadsheet.
type ExportWorker struct {
	exporter sheets.PaymentExporter
}

func NewExportWorker(exporter sheets.PaymentExporter) *ExportWorker {
	return &ExportWorker{exporter: exporter}
}

// HandleEvent applies one event. Errors are returned so the message is requeued.
func (w *ExportWorker) HandleEvent(ctx context.Context, e amqp.PaymentEvent) error {
	slog.InfoContext(ctx, "Processing payment event", "type", e.Type, "id", e.ID)

	switch e.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		if e.Payment == nil {
			return fmt.Errorf("%s event for %s has no payment", e.Type, e.ID)
		}
		if err := w.exporter.Upsert(ctx, *e.Payment); err != nil {
			return fmt.Errorf("export payment %s: %w", e.ID, err)
		}
	case amqp.EventDeleted:
		if err := w.exporter.Delete(ctx, e.ID); err != nil {
			return fmt.Errorf("delete exported payment %s: %w", e.ID, err)
		}
	default:
		slog.WarnContext(ctx, "Ignoring unknown payment event", "type", e.Type, "id", e.ID)
	}
	return nil
}

// Resync makes the sheet match src: every stored payment is written in one
// batch, then rows whose payment no longer exists are deleted. It returns the
// number of payments written.
func (w *ExportWorker) Resync(ctx context.Context, src store.PaymentStore) (int, error) {
	items, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list payments: %w", err)
	}
	slog.InfoContext(ctx, "Resyncing payments", "count", len(items))

	keep := make(map[string]struct{}, len(items))
	batch := make([]core.PaymentDetails, 0, len(items))
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		keep[it.ID] = struct{}{}
		d, err := src.GetDetails(ctx, it.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load payment for resync", "id", it.ID, "error", err)
			continue
		}
		batch = append(batch, d)
	}

	exported := 0
	if len(batch) > 0 {
		if err := w.exporter.UpsertAll(ctx, batch); err != nil {
			slog.ErrorContext(ctx, "Failed to export payments during resync", "count", len(batch), "error", err)
		} else {
			exported = len(batch)
		}
	}

	removed := w.prune(ctx, keep)
	slog.InfoContext(ctx, "Resync completed", "exported", exported, "removed", removed, "total", len(items))
	return exported, nil
}

// prune deletes exported rows whose id is not in keep.
func (w *ExportWorker) prune(ctx context.Context, keep map[string]struct{}) int {
	ids, err := w.exporter.IDs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list exported payments", "error", err)
		return 0
	}
	removed := 0
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			continue
		}
		if err := w.exporter.Delete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to remove stale exported payment", "id", id, "error", err)
			continue
		}
		removed++
	}
	return removed
}

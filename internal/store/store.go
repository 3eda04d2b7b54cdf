// Package store defines the payment persistence port shared by the in-memory
// and SQLite implementations.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"paytrack/internal/core"
)

// PaymentStore owns payment identity and state.
type PaymentStore interface {
	List(ctx context.Context) ([]core.PaymentListItem, error)
	ListFiltered(ctx context.Context, c core.Criteria) ([]core.PaymentListItem, error)
	GetDetails(ctx context.Context, id string) (core.PaymentDetails, error)
	// Add stores f under a freshly generated identifier and returns it.
	Add(ctx context.Context, f core.PaymentFields) (string, error)
	// Edit replaces every field of the payment with id in one step.
	Edit(ctx context.Context, id string, f core.PaymentFields) error
	Remove(ctx context.Context, id string) error
}

// MissingPolicy decides what Edit and Remove do with an unknown identifier.
type MissingPolicy int

const (
	// MissingWarn logs a warning and reports success.
	MissingWarn MissingPolicy = iota
	// MissingFail returns a *core.NotFoundError.
	MissingFail
)

const KindPayment = "payment"

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn":
		return MissingWarn, nil
	case "fail":
		return MissingFail, nil
	default:
		return MissingWarn, fmt.Errorf("unknown missing policy %q (want warn or fail)", s)
	}
}

func (p MissingPolicy) String() string {
	if p == MissingFail {
		return "fail"
	}
	return "warn"
}

// Missing applies the policy to an operation that found no payment with id.
func (p MissingPolicy) Missing(ctx context.Context, logger *slog.Logger, op, id string) error {
	if p == MissingFail {
		return core.NewNotFoundError(KindPayment, id)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "Payment not found, nothing to do", "operation", op, "id", id)
	return nil
}

// Filter returns the items matching c, never nil.
func Filter(items []core.PaymentListItem, c core.Criteria) []core.PaymentListItem {
	out := make([]core.PaymentListItem, 0, len(items))
	for _, it := range items {
		if c.Matches(it) {
			out = append(out, it)
		}
	}
	return out
}

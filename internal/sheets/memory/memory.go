package memory

import (
	"context"
	"sync"

	"paytrack/internal/core"
	"paytrack/internal/sheets"
)

// Exporter keeps exported rows in memory, in first-export order.
type Exporter struct {
	mu    sync.Mutex
	rows  map[string]core.PaymentDetails
	order []string
}

var _ sheets.PaymentExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{rows: make(map[string]core.PaymentDetails)}
}

func (e *Exporter) Upsert(ctx context.Context, d core.PaymentDetails) error {
	return e.UpsertAll(ctx, []core.PaymentDetails{d})
}

func (e *Exporter) UpsertAll(_ context.Context, ds []core.PaymentDetails) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range ds {
		if _, ok := e.rows[d.ID]; !ok {
			e.order = append(e.order, d.ID)
		}
		d.Photos = append([]string(nil), d.Photos...)
		e.rows[d.ID] = d
	}
	return nil
}

func (e *Exporter) IDs(_ context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.order...), nil
}

func (e *Exporter) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rows[id]; !ok {
		return nil
	}
	delete(e.rows, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns a snapshot of exported payments.
func (e *Exporter) Rows() []core.PaymentDetails {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.PaymentDetails, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rows[id])
	}
	return out
}

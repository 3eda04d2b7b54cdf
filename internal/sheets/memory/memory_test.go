package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

func TestExporterUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	e := New()

	p := core.PaymentDetails{ID: "a", Title: "First", Amount: decimal.NewFromInt(1)}
	if err := e.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := e.Upsert(ctx, core.PaymentDetails{ID: "b", Title: "Second"}); err != nil {
		t.Fatal(err)
	}
	p.Title = "First, edited"
	if err := e.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}

	rows := e.Rows()
	if len(rows) != 2 || rows[0].Title != "First, edited" || rows[1].ID != "b" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	if err := e.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := e.Delete(ctx, "missing"); err != nil {
		t.Fatalf("deleting unknown id should be a no-op: %v", err)
	}
	if rows := e.Rows(); len(rows) != 1 || rows[0].ID != "b" {
		t.Fatalf("unexpected rows after delete: %+v", rows)
	}
}

func TestExporterUpsertAllAndIDs(t *testing.T) {
	ctx := context.Background()
	e := New()

	err := e.UpsertAll(ctx, []core.PaymentDetails{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "a", Title: "A2"}})
	if err != nil {
		t.Fatal(err)
	}
	ids, err := e.IDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("IDs() = %v, want [a b]", ids)
	}
	if rows := e.Rows(); rows[0].Title != "A2" {
		t.Fatalf("later write should win, got %q", rows[0].Title)
	}
}

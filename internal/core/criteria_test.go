package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func item(title string, amount string, date Date, cat Category) PaymentListItem {
	return PaymentListItem{ID: title, Title: title, Amount: decimal.RequireFromString(amount), Date: date, Category: cat}
}

func TestCriteriaMatches(t *testing.T) {
	day := NewDate(2024, 5, 10)
	base := item("Coffee Beans", "12.50", day, Food)

	cases := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"defaults", NewCriteria(), true},
		{"query case-insensitive", NewCriteria(WithQuery("coffee")), true},
		{"query miss", NewCriteria(WithQuery("tea")), false},
		{"category allowed", NewCriteria(WithCategories(Food, Travel)), true},
		{"category excluded", NewCriteria(WithCategories(Travel)), false},
		{"min inclusive", NewCriteria(WithMinAmount(decimal.RequireFromString("12.50"))), true},
		{"min above", NewCriteria(WithMinAmount(decimal.RequireFromString("12.51"))), false},
		{"max inclusive", NewCriteria(WithMaxAmount(decimal.RequireFromString("12.5"))), true},
		{"max below", NewCriteria(WithMaxAmount(decimal.RequireFromString("12"))), false},
		{"start inclusive", NewCriteria(WithDateRange(day, Date{})), true},
		{"end inclusive", NewCriteria(WithDateRange(Date{}, day)), true},
		{"before range", NewCriteria(WithDateRange(NewDate(2024, 5, 11), Date{})), false},
		{"after range", NewCriteria(WithDateRange(Date{}, NewDate(2024, 5, 9))), false},
		{"zero value", Criteria{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Matches(base); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCriteriaDefaultsToHistoryThroughToday(t *testing.T) {
	c := NewCriteria()
	if !c.Start().Equal(HistoryStart.Time) {
		t.Fatalf("start = %v", c.Start())
	}
	if !c.End().Equal(Today().Time) {
		t.Fatalf("end = %v", c.End())
	}
	if c.Matches(item("future", "1", NewDate(Today().Year()+1, 1, 1), Food)) {
		t.Fatalf("future payment should be excluded by default")
	}
}

func TestCriteriaAccessorsReturnCopies(t *testing.T) {
	c := NewCriteria(WithCategories(Food), WithMinAmount(decimal.NewFromInt(5)))
	cats := c.Categories()
	cats[0] = Travel
	if c.Categories()[0] != Food {
		t.Fatalf("categories leaked")
	}
	min, ok := c.MinAmount()
	if !ok || !min.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected min %v %v", min, ok)
	}
	if _, ok := c.MaxAmount(); ok {
		t.Fatalf("max should be unbounded")
	}
}

func TestCriteriaKeyIsOrderIndependent(t *testing.T) {
	a := NewCriteria(WithCategories(Food, Travel), WithQuery("X"))
	b := NewCriteria(WithCategories(Travel, Food), WithQuery("x"))
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %s vs %s", a.Key(), b.Key())
	}
}

func TestSummarize(t *testing.T) {
	d := NewDate(2024, 1, 1)
	items := []PaymentListItem{
		item("a", "10", d, Food),
		item("b", "5.5", d, Food),
		item("c", "15.5", d, Travel),
		item("d", "1", d, Health),
	}
	b := Summarize(NewCriteria(), items)
	if !b.Total.Equal(decimal.RequireFromString("32")) || b.Count != 4 {
		t.Fatalf("unexpected total %s count %d", b.Total, b.Count)
	}
	if len(b.ByCategory) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(b.ByCategory))
	}
	// Food and Travel tie at 15.5: name order breaks the tie.
	if b.ByCategory[0].Category != Food || b.ByCategory[1].Category != Travel || b.ByCategory[2].Category != Health {
		t.Fatalf("unexpected order %+v", b.ByCategory)
	}
	if b.ByCategory[0].Count != 2 {
		t.Fatalf("expected food count 2")
	}
}

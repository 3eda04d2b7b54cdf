package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// HistoryStart is the default lower date bound of a filter.
var HistoryStart = NewDate(2000, 1, 1)

// Criteria restricts a payment listing. It is immutable once built: use
// NewCriteria with options, and the accessors hand out copies. The zero value
// matches everything.
type Criteria struct {
	query      string
	categories map[Category]struct{}
	minAmount  *decimal.Decimal
	maxAmount  *decimal.Decimal
	start      Date
	end        Date
}

type CriteriaOption func(*Criteria)

// WithQuery restricts to titles containing q, ignoring case.
func WithQuery(q string) CriteriaOption {
	return func(c *Criteria) {
		c.query = strings.TrimSpace(q)
	}
}

// WithCategories restricts to the given categories. No categories means no restriction.
func WithCategories(cats ...Category) CriteriaOption {
	return func(c *Criteria) {
		for _, cat := range cats {
			c.categories[cat] = struct{}{}
		}
	}
}

// WithMinAmount sets an inclusive lower amount bound.
func WithMinAmount(d decimal.Decimal) CriteriaOption {
	return func(c *Criteria) {
		c.minAmount = &d
	}
}

// WithMaxAmount sets an inclusive upper amount bound.
func WithMaxAmount(d decimal.Decimal) CriteriaOption {
	return func(c *Criteria) {
		c.maxAmount = &d
	}
}

// WithDateRange sets inclusive date bounds. A zero date keeps the default.
func WithDateRange(start, end Date) CriteriaOption {
	return func(c *Criteria) {
		if !start.IsZero() {
			c.start = start
		}
		if !end.IsZero() {
			c.end = end
		}
	}
}

// NewCriteria builds criteria spanning HistoryStart through today unless
// options say otherwise.
func NewCriteria(opts ...CriteriaOption) Criteria {
	c := Criteria{
		categories: make(map[Category]struct{}),
		start:      HistoryStart,
		end:        Today(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Criteria) Query() string { return c.query }

// Categories returns the allowed categories sorted by name.
func (c Criteria) Categories() []Category {
	out := make([]Category, 0, len(c.categories))
	for cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c Criteria) MinAmount() (decimal.Decimal, bool) {
	if c.minAmount == nil {
		return decimal.Zero, false
	}
	return *c.minAmount, true
}

func (c Criteria) MaxAmount() (decimal.Decimal, bool) {
	if c.maxAmount == nil {
		return decimal.Zero, false
	}
	return *c.maxAmount, true
}

func (c Criteria) Start() Date { return c.start }

func (c Criteria) End() Date { return c.end }

// Matches evaluates every predicate against p.
func (c Criteria) Matches(p PaymentListItem) bool {
	if c.query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(c.query)) {
		return false
	}
	if len(c.categories) > 0 {
		if _, ok := c.categories[p.Category]; !ok {
			return false
		}
	}
	if c.minAmount != nil && p.Amount.LessThan(*c.minAmount) {
		return false
	}
	if c.maxAmount != nil && p.Amount.GreaterThan(*c.maxAmount) {
		return false
	}
	if !c.start.IsZero() && p.Date.Before(c.start) {
		return false
	}
	if !c.end.IsZero() && p.Date.After(c.end) {
		return false
	}
	return true
}

// Key is a stable textual form of the criteria, usable as a cache key.
func (c Criteria) Key() string {
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(strings.ToLower(c.query))
	b.WriteString("|c=")
	for i, cat := range c.Categories() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(cat))
	}
	b.WriteString("|min=")
	if c.minAmount != nil {
		b.WriteString(c.minAmount.String())
	}
	b.WriteString("|max=")
	if c.maxAmount != nil {
		b.WriteString(c.maxAmount.String())
	}
	b.WriteString("|from=")
	b.WriteString(c.start.String())
	b.WriteString("|to=")
	b.WriteString(c.end.String())
	return b.String()
}

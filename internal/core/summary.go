package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// Breakdown is the spending summary of a filtered listing.
type Breakdown struct {
	From       Date             `json:"from"`
	To         Date             `json:"to"`
	Total      decimal.Decimal  `json:"total"`
	Count      int              `json:"count"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// Summarize sums items per category, largest first and ties by name.
func Summarize(c Criteria, items []PaymentListItem) Breakdown {
	b := Breakdown{
		From:       c.Start(),
		To:         c.End(),
		Total:      decimal.Zero,
		ByCategory: []CategoryAmount{},
	}
	sums := make(map[Category]*CategoryAmount)
	for _, it := range items {
		b.Total = b.Total.Add(it.Amount)
		b.Count++
		ca, ok := sums[it.Category]
		if !ok {
			ca = &CategoryAmount{Category: it.Category, Amount: decimal.Zero}
			sums[it.Category] = ca
		}
		ca.Amount = ca.Amount.Add(it.Amount)
		ca.Count++
	}
	for _, ca := range sums {
		b.ByCategory = append(b.ByCategory, *ca)
	}
	sort.Slice(b.ByCategory, func(i, j int) bool {
		if cmp := b.ByCategory[i].Amount.Cmp(b.ByCategory[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return b.ByCategory[i].Category < b.ByCategory[j].Category
	})
	return b
}

package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   decimal.Decimal
}

// SortedAmounts flattens a per-category mapping into ordinal order, skipping
// categories that are absent from the map.
func SortedAmounts(m map[Category]decimal.Decimal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m))
	for _, c := range Categories() {
		if amt, ok := m[c]; ok {
			out = append(out, CategoryAmount{Category: c, Amount: amt})
		}
	}
	return out
}

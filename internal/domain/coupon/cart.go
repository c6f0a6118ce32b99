package coupon

import "github.com/shopspring/decimal"

// Aggregate reduces a cart into the summary totals consumed by eligibility
// checks: total value, total item count, and the set of distinct non-empty
// categories. Zero-valued fields contribute nothing, so malformed or partial
// line items are absorbed rather than rejected.
func Aggregate(cart Cart) CartTotals {
	totals := CartTotals{
		Value:      decimal.Zero,
		Categories: make(map[string]struct{}),
	}

	for _, item := range cart.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))
		totals.Value = totals.Value.Add(line)
		totals.Items += item.Quantity
		if item.Category != "" {
			totals.Categories[item.Category] = struct{}{}
		}
	}

	return totals
}

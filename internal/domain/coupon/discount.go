package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ComputeDiscount calculates the monetary discount a coupon yields for the
// given cart value. FLAT coupons discount their value directly; PERCENT
// coupons discount a share of the cart value, clamped to MaxDiscountAmount
// when set. Either way the discount never exceeds the cart value, never goes
// negative, and is rounded to 2 decimal places with cents rounding half away
// from zero. A legitimate zero result is possible; excluding zero-benefit
// coupons is the selector's job.
func ComputeDiscount(c *Coupon, cartValue decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal

	switch c.DiscountType {
	case DiscountFlat:
		amount = c.DiscountValue
	case DiscountPercent:
		amount = c.DiscountValue.Mul(cartValue).Div(hundred)
		if c.MaxDiscountAmount != nil {
			amount = decimal.Min(amount, *c.MaxDiscountAmount)
		}
	default:
		// Unknown types are rejected at admission; yield no benefit here.
		return decimal.Zero
	}

	amount = decimal.Min(amount, cartValue)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}

package coupon

import "time"

// WithinValidity reports whether now falls inside the coupon's validity
// window. Both ends are inclusive.
func WithinValidity(c *Coupon, now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// UnderUsageLimit reports whether the user may still redeem the coupon given
// their usage snapshot. Coupons without a per-user limit always pass; absent
// snapshot entries count as zero.
func UnderUsageLimit(c *Coupon, usage UsageCounts) bool {
	if c.UsageLimitPerUser == nil {
		return true
	}
	return usage[c.Code] < *c.UsageLimitPerUser
}

// UserEligible evaluates the user-level eligibility rules. Every present rule
// must pass; absent rules are skipped. Coupons without an eligibility block
// always pass.
func UserEligible(c *Coupon, user User) bool {
	if c.Eligibility == nil {
		return true
	}
	e := c.Eligibility

	if len(e.AllowedUserTiers) > 0 && !contains(e.AllowedUserTiers, user.Tier) {
		return false
	}
	if e.MinLifetimeSpend != nil && user.LifetimeSpend.LessThan(*e.MinLifetimeSpend) {
		return false
	}
	if e.MinOrdersPlaced != nil && user.OrdersPlaced < *e.MinOrdersPlaced {
		return false
	}
	// firstOrderOnly deliberately means "never completed an order": the
	// orders-placed counter must be exactly zero.
	if e.FirstOrderOnly && user.OrdersPlaced != 0 {
		return false
	}
	if len(e.AllowedCountries) > 0 && !contains(e.AllowedCountries, user.Country) {
		return false
	}

	return true
}

// CartEligible evaluates the cart-level eligibility rules against the
// aggregated totals. excludedCategories fails when any cart category is a
// member; applicableCategories (when non-empty) requires at least one match.
func CartEligible(c *Coupon, totals CartTotals) bool {
	if c.Eligibility == nil {
		return true
	}
	e := c.Eligibility

	if e.MinCartValue != nil && totals.Value.LessThan(*e.MinCartValue) {
		return false
	}
	if e.MinItemsCount != nil && totals.Items < *e.MinItemsCount {
		return false
	}
	for _, excluded := range e.ExcludedCategories {
		if _, ok := totals.Categories[excluded]; ok {
			return false
		}
	}
	if len(e.ApplicableCategories) > 0 {
		matched := false
		for _, applicable := range e.ApplicableCategories {
			if _, ok := totals.Categories[applicable]; ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

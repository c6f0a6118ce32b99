package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// SelectBest picks the single best-applicable coupon from the catalog for the
// given user and cart. Each coupon runs through the eligibility predicates in
// cheapest-first order (validity, usage limit, user rules, cart rules),
// short-circuiting on the first failure. Survivors with a positive discount
// compete under a strict total order: higher discount wins, then earlier end
// date (burn down offers expiring sooner), then lexicographically smaller
// code. The function reads the usage snapshot but mutates nothing, so
// identical inputs always produce identical output.
//
// A panic while evaluating one coupon skips that coupon only; its code is
// reported in Result.Skipped.
func SelectBest(user User, cart Cart, catalog []Coupon, usage UsageCounts, now time.Time) Result {
	totals := Aggregate(cart)

	var (
		best     *Coupon
		bestDisc decimal.Decimal
		skipped  []string
	)

	for i := range catalog {
		c := &catalog[i]

		disc, ok, failed := evaluate(c, user, totals, usage, now)
		if failed {
			skipped = append(skipped, c.Code)
			continue
		}
		if !ok {
			continue
		}

		if best == nil || beats(c, disc, best, bestDisc) {
			best = c
			bestDisc = disc
		}
	}

	if best == nil {
		return Result{Skipped: skipped}
	}

	winner := *best
	return Result{Coupon: &winner, Discount: bestDisc, Skipped: skipped}
}

// evaluate runs one coupon through the full predicate chain and computes its
// discount. ok is false when any predicate rejects the coupon or the discount
// is not positive; failed is true when evaluation panicked, which isolates a
// malformed catalog entry instead of aborting the whole selection.
func evaluate(c *Coupon, user User, totals CartTotals, usage UsageCounts, now time.Time) (disc decimal.Decimal, ok, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok, failed = false, true
		}
	}()

	if !WithinValidity(c, now) {
		return decimal.Zero, false, false
	}
	if !UnderUsageLimit(c, usage) {
		return decimal.Zero, false, false
	}
	if !UserEligible(c, user) {
		return decimal.Zero, false, false
	}
	if !CartEligible(c, totals) {
		return decimal.Zero, false, false
	}

	disc = ComputeDiscount(c, totals.Value)
	if !disc.IsPositive() {
		return decimal.Zero, false, false
	}
	return disc, true, false
}

// beats reports whether candidate c with discount disc ranks strictly ahead
// of the current best under the (discount desc, endDate asc, code asc) order.
func beats(c *Coupon, disc decimal.Decimal, best *Coupon, bestDisc decimal.Decimal) bool {
	switch cmp := disc.Cmp(bestDisc); {
	case cmp > 0:
		return true
	case cmp < 0:
		return false
	}
	if !c.EndDate.Equal(best.EndDate) {
		return c.EndDate.Before(best.EndDate)
	}
	return c.Code < best.Code
}

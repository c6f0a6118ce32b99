package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-engine/internal/domain/coupon"
)

func testCoupon(code string) coupon.Coupon {
	return coupon.Coupon{
		Code:          code,
		DiscountType:  coupon.DiscountFlat,
		DiscountValue: decimal.NewFromInt(5),
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		c := NewCatalog()
		require.NoError(t, c.Insert(ctx, testCoupon("A")))

		found, err := c.FindByCode(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "A", found.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		c := NewCatalog()
		_, err := c.FindByCode(ctx, "MISSING")
		require.ErrorIs(t, err, coupon.ErrNotFound)
	})

	t.Run("duplicate code rejected", func(t *testing.T) {
		c := NewCatalog()
		require.NoError(t, c.Insert(ctx, testCoupon("A")))
		require.ErrorIs(t, c.Insert(ctx, testCoupon("A")), coupon.ErrDuplicateCode)
	})

	t.Run("list preserves insertion order", func(t *testing.T) {
		c := NewCatalog()
		for _, code := range []string{"C", "A", "B"} {
			require.NoError(t, c.Insert(ctx, testCoupon(code)))
		}

		coupons, err := c.List(ctx)
		require.NoError(t, err)
		require.Len(t, coupons, 3)
		assert.Equal(t, "C", coupons[0].Code)
		assert.Equal(t, "A", coupons[1].Code)
		assert.Equal(t, "B", coupons[2].Code)
	})

	t.Run("list returns a snapshot", func(t *testing.T) {
		c := NewCatalog()
		require.NoError(t, c.Insert(ctx, testCoupon("A")))

		snapshot, err := c.List(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Insert(ctx, testCoupon("B")))

		assert.Len(t, snapshot, 1)
	})
}

func TestUsageStore(t *testing.T) {
	ctx := context.Background()

	t.Run("increment returns the running count", func(t *testing.T) {
		u := NewUsageStore()

		count, err := u.Increment(ctx, "SAVE10", "u1")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		count, err = u.Increment(ctx, "SAVE10", "u1")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("counts are per user", func(t *testing.T) {
		u := NewUsageStore()
		_, err := u.Increment(ctx, "SAVE10", "u1")
		require.NoError(t, err)
		_, err = u.Increment(ctx, "OTHER", "u2")
		require.NoError(t, err)

		counts, err := u.CountsByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, coupon.UsageCounts{"SAVE10": 1}, counts)
	})

	t.Run("unknown user has empty counts", func(t *testing.T) {
		u := NewUsageStore()
		counts, err := u.CountsByUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, counts)
	})

	t.Run("concurrent increments do not lose updates", func(t *testing.T) {
		u := NewUsageStore()

		const workers = 20
		var wg sync.WaitGroup
		wg.Add(workers)
		for range workers {
			go func() {
				defer wg.Done()
				_, _ = u.Increment(ctx, "HOT", "u1")
			}()
		}
		wg.Wait()

		counts, err := u.CountsByUser(ctx, "u1")
		require.NoError(t, err)
		assert.EqualValues(t, workers, counts["HOT"])
	})
}

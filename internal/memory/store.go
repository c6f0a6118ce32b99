// Package memory provides in-process implementations of the coupon catalog
// and usage store. They back the development mode (no database configured)
// and the unit tests.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/promo-engine/internal/domain/coupon"
)

var (
	_ coupon.Catalog    = (*Catalog)(nil)
	_ coupon.UsageStore = (*UsageStore)(nil)
)

// Catalog is an append-only, code-unique coupon collection guarded by a
// mutex. List returns a snapshot, so concurrent appends never corrupt an
// in-flight evaluation.
type Catalog struct {
	mu      sync.RWMutex
	byCode  map[string]int
	coupons []coupon.Coupon
}

// NewCatalog creates an empty in-memory catalog.
func NewCatalog() *Catalog {
	return &Catalog{byCode: make(map[string]int)}
}

// List returns a copy of the catalog in insertion order.
func (c *Catalog) List(_ context.Context) ([]coupon.Coupon, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]coupon.Coupon, len(c.coupons))
	copy(out, c.coupons)
	return out, nil
}

// FindByCode returns the coupon with the given code, or coupon.ErrNotFound.
func (c *Catalog) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	found := c.coupons[i]
	return &found, nil
}

// Insert appends a coupon, rejecting duplicate codes with
// coupon.ErrDuplicateCode. The check and the append happen under one lock,
// so concurrent inserts of the same code cannot both succeed.
func (c *Catalog) Insert(_ context.Context, cp coupon.Coupon) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byCode[cp.Code]; ok {
		return coupon.ErrDuplicateCode
	}
	c.byCode[cp.Code] = len(c.coupons)
	c.coupons = append(c.coupons, cp)
	return nil
}

// usageKey identifies a (coupon code, user) counter.
type usageKey struct {
	code   string
	userID string
}

// UsageStore tracks per-(code, user) redemption counters in a mutex-guarded
// map. Counters only ever grow.
type UsageStore struct {
	mu     sync.RWMutex
	counts map[usageKey]int64
}

// NewUsageStore creates an empty in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{counts: make(map[usageKey]int64)}
}

// CountsByUser returns a snapshot of the user's counters keyed by coupon code.
func (u *UsageStore) CountsByUser(_ context.Context, userID string) (coupon.UsageCounts, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make(coupon.UsageCounts)
	for k, n := range u.counts {
		if k.userID == userID {
			out[k.code] = n
		}
	}
	return out, nil
}

// Increment atomically bumps the (code, user) counter and returns the new
// count.
func (u *UsageStore) Increment(_ context.Context, code, userID string) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	k := usageKey{code: code, userID: userID}
	u.counts[k]++
	return u.counts[k], nil
}

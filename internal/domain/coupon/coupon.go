// Package coupon implements the promotional-coupon evaluation core: payload
// validation, cart aggregation, eligibility checks, discount calculation, and
// best-coupon selection. Everything here is a pure computation over
// caller-supplied snapshots; storage lives behind the Catalog and UsageStore
// interfaces.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountFlat subtracts a fixed monetary amount from the cart value.
	DiscountFlat DiscountType = "FLAT"
	// DiscountPercent subtracts a percentage of the cart value, optionally
	// capped by the coupon's MaxDiscountAmount.
	DiscountPercent DiscountType = "PERCENT"
)

var (
	// ErrNotFound is returned when a coupon code does not exist in the catalog.
	ErrNotFound = errors.New("coupon not found")
	// ErrDuplicateCode is returned when inserting a coupon whose code is
	// already taken. Codes are unique catalog keys and never change.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Coupon is a discount rule with a validity window, an optional per-user
// usage limit, and optional eligibility constraints.
type Coupon struct {
	Code              string           `json:"code"`
	DiscountType      DiscountType     `json:"discountType"`
	DiscountValue     decimal.Decimal  `json:"discountValue"`
	StartDate         time.Time        `json:"startDate"`
	EndDate           time.Time        `json:"endDate"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
	UsageLimitPerUser *int64           `json:"usageLimitPerUser,omitempty"`
	Eligibility       *Eligibility     `json:"eligibility,omitempty"`
}

// Eligibility holds a coupon's optional conjunctive constraints. Every
// present rule must pass; absent rules are skipped.
type Eligibility struct {
	AllowedUserTiers     []string         `json:"allowedUserTiers,omitempty"`
	MinLifetimeSpend     *decimal.Decimal `json:"minLifetimeSpend,omitempty"`
	MinOrdersPlaced      *int64           `json:"minOrdersPlaced,omitempty"`
	FirstOrderOnly       bool             `json:"firstOrderOnly,omitempty"`
	AllowedCountries     []string         `json:"allowedCountries,omitempty"`
	MinCartValue         *decimal.Decimal `json:"minCartValue,omitempty"`
	MinItemsCount        *int64           `json:"minItemsCount,omitempty"`
	ExcludedCategories   []string         `json:"excludedCategories,omitempty"`
	ApplicableCategories []string         `json:"applicableCategories,omitempty"`
}

// User is the shopper profile evaluated against user-level eligibility rules.
type User struct {
	ID            string
	Tier          string
	Country       string
	LifetimeSpend decimal.Decimal
	OrdersPlaced  int64
}

// Item is a single cart line.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int64
	Category  string
}

// Cart is an ordered sequence of line items.
type Cart struct {
	Items []Item
}

// CartTotals is the derived cart summary consumed by eligibility checks.
// It is recomputed per evaluation and never persisted.
type CartTotals struct {
	Value      decimal.Decimal
	Items      int64
	Categories map[string]struct{}
}

// UsageCounts is a per-user snapshot of redemption counters, keyed by coupon
// code. Absent entries mean zero.
type UsageCounts map[string]int64

// Result is the outcome of a best-coupon selection. Coupon is nil when no
// candidate qualifies. Skipped lists codes dropped because their evaluation
// panicked; callers should log them.
type Result struct {
	Coupon   *Coupon
	Discount decimal.Decimal
	Skipped  []string
}

// Catalog is the append-only coupon collection. Implementations guarantee
// code uniqueness and never mutate or delete existing entries.
type Catalog interface {
	List(ctx context.Context) ([]Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Insert(ctx context.Context, c Coupon) error
}

// UsageStore tracks per-(code, user) redemption counters. Counters are only
// ever incremented; Increment must be atomic per key.
type UsageStore interface {
	CountsByUser(ctx context.Context, userID string) (UsageCounts, error)
	Increment(ctx context.Context, code, userID string) (int64, error)
}

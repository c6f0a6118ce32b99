package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/domain/coupon"
)

// Wire types. Money fields are emitted as plain JSON numbers, so domain
// decimals are converted at the edge (shopspring marshals them as strings).

type userJSON struct {
	UserID        string          `json:"userId"`
	UserTier      string          `json:"userTier"`
	Country       string          `json:"country"`
	LifetimeSpend decimal.Decimal `json:"lifetimeSpend"`
	OrdersPlaced  int64           `json:"ordersPlaced"`
}

type cartJSON struct {
	Items []cartItemJSON `json:"items"`
}

type cartItemJSON struct {
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int64           `json:"quantity"`
	Category  string          `json:"category,omitempty"`
}

type bestCouponRequest struct {
	User *userJSON `json:"user"`
	Cart *cartJSON `json:"cart"`
}

type bestCouponResponse struct {
	Coupon   *couponJSON `json:"coupon"`
	Discount *float64    `json:"discount"`
}

type createCouponResponse struct {
	Message string     `json:"message"`
	Coupon  couponJSON `json:"coupon"`
}

type recordUsageRequest struct {
	UserID string `json:"userId"`
}

type recordUsageResponse struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	UserID     string `json:"userId"`
	UsageCount int64  `json:"usageCount"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type couponJSON struct {
	Code              string           `json:"code"`
	DiscountType      string           `json:"discountType"`
	DiscountValue     float64          `json:"discountValue"`
	StartDate         time.Time        `json:"startDate"`
	EndDate           time.Time        `json:"endDate"`
	MaxDiscountAmount *float64         `json:"maxDiscountAmount,omitempty"`
	UsageLimitPerUser *int64           `json:"usageLimitPerUser,omitempty"`
	Eligibility       *eligibilityJSON `json:"eligibility,omitempty"`
}

type eligibilityJSON struct {
	AllowedUserTiers     []string `json:"allowedUserTiers,omitempty"`
	MinLifetimeSpend     *float64 `json:"minLifetimeSpend,omitempty"`
	MinOrdersPlaced      *int64   `json:"minOrdersPlaced,omitempty"`
	FirstOrderOnly       bool     `json:"firstOrderOnly,omitempty"`
	AllowedCountries     []string `json:"allowedCountries,omitempty"`
	MinCartValue         *float64 `json:"minCartValue,omitempty"`
	MinItemsCount        *int64   `json:"minItemsCount,omitempty"`
	ExcludedCategories   []string `json:"excludedCategories,omitempty"`
	ApplicableCategories []string `json:"applicableCategories,omitempty"`
}

func (u *userJSON) toDomain() coupon.User {
	return coupon.User{
		ID:            u.UserID,
		Tier:          u.UserTier,
		Country:       u.Country,
		LifetimeSpend: u.LifetimeSpend,
		OrdersPlaced:  u.OrdersPlaced,
	}
}

func (c *cartJSON) toDomain() coupon.Cart {
	items := make([]coupon.Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = coupon.Item{
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Category:  it.Category,
		}
	}
	return coupon.Cart{Items: items}
}

func domainToCouponJSON(c coupon.Coupon) couponJSON {
	out := couponJSON{
		Code:              c.Code,
		DiscountType:      string(c.DiscountType),
		DiscountValue:     c.DiscountValue.InexactFloat64(),
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		MaxDiscountAmount: decimalPtrToFloat(c.MaxDiscountAmount),
		UsageLimitPerUser: c.UsageLimitPerUser,
	}
	if c.Eligibility != nil {
		e := c.Eligibility
		out.Eligibility = &eligibilityJSON{
			AllowedUserTiers:     e.AllowedUserTiers,
			MinLifetimeSpend:     decimalPtrToFloat(e.MinLifetimeSpend),
			MinOrdersPlaced:      e.MinOrdersPlaced,
			FirstOrderOnly:       e.FirstOrderOnly,
			AllowedCountries:     e.AllowedCountries,
			MinCartValue:         decimalPtrToFloat(e.MinCartValue),
			MinItemsCount:        e.MinItemsCount,
			ExcludedCategories:   e.ExcludedCategories,
			ApplicableCategories: e.ApplicableCategories,
		}
	}
	return out
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

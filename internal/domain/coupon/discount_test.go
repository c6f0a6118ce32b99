package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dptr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name      string
		coupon    Coupon
		cartValue decimal.Decimal
		want      decimal.Decimal
	}{
		{
			name:      "flat discount",
			coupon:    Coupon{DiscountType: DiscountFlat, DiscountValue: d("10")},
			cartValue: d("50"),
			want:      d("10"),
		},
		{
			name:      "flat discount clamped to cart value",
			coupon:    Coupon{DiscountType: DiscountFlat, DiscountValue: d("80")},
			cartValue: d("49.50"),
			want:      d("49.50"),
		},
		{
			name:      "percent discount",
			coupon:    Coupon{DiscountType: DiscountPercent, DiscountValue: d("10")},
			cartValue: d("250"),
			want:      d("25"),
		},
		{
			name: "percent discount capped",
			coupon: Coupon{
				DiscountType:      DiscountPercent,
				DiscountValue:     d("50"),
				MaxDiscountAmount: dptr("20"),
			},
			cartValue: d("100"),
			want:      d("20"),
		},
		{
			name: "cap above computed amount is inert",
			coupon: Coupon{
				DiscountType:      DiscountPercent,
				DiscountValue:     d("10"),
				MaxDiscountAmount: dptr("500"),
			},
			cartValue: d("100"),
			want:      d("10"),
		},
		{
			name:      "percent of empty cart is zero",
			coupon:    Coupon{DiscountType: DiscountPercent, DiscountValue: d("50")},
			cartValue: d("0"),
			want:      d("0"),
		},
		{
			name:      "flat zero value yields zero",
			coupon:    Coupon{DiscountType: DiscountFlat, DiscountValue: d("0")},
			cartValue: d("100"),
			want:      d("0"),
		},
		{
			name:      "unknown discount type yields zero",
			coupon:    Coupon{DiscountType: "BOGO", DiscountValue: d("10")},
			cartValue: d("100"),
			want:      d("0"),
		},
		{
			name:      "half cent rounds up",
			coupon:    Coupon{DiscountType: DiscountPercent, DiscountValue: d("50")},
			cartValue: d("20.01"),
			want:      d("10.01"),
		},
		{
			name:      "sub half cent rounds down",
			coupon:    Coupon{DiscountType: DiscountPercent, DiscountValue: d("33")},
			cartValue: d("10.10"),
			want:      d("3.33"),
		},
		{
			name:      "repeating fraction rounds to cents",
			coupon:    Coupon{DiscountType: DiscountPercent, DiscountValue: d("33.33")},
			cartValue: d("3"),
			want:      d("1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(&tt.coupon, tt.cartValue)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestComputeDiscount_NeverExceedsCartOrGoesNegative(t *testing.T) {
	coupons := []Coupon{
		{DiscountType: DiscountFlat, DiscountValue: d("999999")},
		{DiscountType: DiscountPercent, DiscountValue: d("100")},
		{DiscountType: DiscountPercent, DiscountValue: d("250"), MaxDiscountAmount: dptr("10000")},
	}
	carts := []decimal.Decimal{d("0"), d("0.01"), d("42.42"), d("123456.78")}

	for i := range coupons {
		for _, cartValue := range carts {
			got := ComputeDiscount(&coupons[i], cartValue)
			assert.False(t, got.IsNegative(), "discount %s below zero", got)
			assert.True(t, got.LessThanOrEqual(cartValue),
				"discount %s exceeds cart value %s", got, cartValue)
		}
	}
}

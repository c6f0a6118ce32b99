package coupon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RuleKind names the validation rule a coupon payload violated, keeping the
// error taxonomy machine-checkable instead of string-matched.
type RuleKind string

const (
	RuleEmptyPayload  RuleKind = "empty_payload"
	RuleMissingField  RuleKind = "missing_field"
	RuleDiscountType  RuleKind = "discount_type"
	RuleDateFormat    RuleKind = "date_format"
	RuleDateOrder     RuleKind = "date_order"
	RuleDiscountValue RuleKind = "discount_value"
)

// ValidationError reports the first validation rule a payload violates.
type ValidationError struct {
	Kind    RuleKind
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Payload is a proposed coupon definition as submitted by a caller. Dates
// arrive as RFC 3339 strings and DiscountValue as a pointer so that missing
// fields are distinguishable from zero values.
type Payload struct {
	Code              string           `json:"code"`
	DiscountType      string           `json:"discountType"`
	DiscountValue     *decimal.Decimal `json:"discountValue"`
	StartDate         string           `json:"startDate"`
	EndDate           string           `json:"endDate"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
	UsageLimitPerUser *int64           `json:"usageLimitPerUser,omitempty"`
	Eligibility       *Eligibility     `json:"eligibility,omitempty"`
}

// validators run in order; the first failure wins. Catalog uniqueness is not
// checked here because it requires catalog access — that is the caller's
// responsibility, reported as ErrDuplicateCode.
var validators = []func(*Payload) *ValidationError{
	checkRequired,
	checkDiscountType,
	checkDates,
	checkDateOrder,
	checkDiscountValue,
}

// Validate checks a payload for structural and semantic well-formedness and,
// on success, converts it into a catalog-ready Coupon. It has no side effects.
func Validate(p *Payload) (*Coupon, *ValidationError) {
	if p == nil {
		return nil, &ValidationError{Kind: RuleEmptyPayload, Message: "empty payload"}
	}
	for _, check := range validators {
		if verr := check(p); verr != nil {
			return nil, verr
		}
	}
	return p.toCoupon(), nil
}

func checkRequired(p *Payload) *ValidationError {
	missing := ""
	switch {
	case p.Code == "":
		missing = "code"
	case p.DiscountType == "":
		missing = "discountType"
	case p.DiscountValue == nil:
		missing = "discountValue"
	case p.StartDate == "":
		missing = "startDate"
	case p.EndDate == "":
		missing = "endDate"
	default:
		return nil
	}
	return &ValidationError{
		Kind:    RuleMissingField,
		Message: fmt.Sprintf("missing required field: %s", missing),
	}
}

func checkDiscountType(p *Payload) *ValidationError {
	if t := DiscountType(p.DiscountType); t == DiscountFlat || t == DiscountPercent {
		return nil
	}
	return &ValidationError{
		Kind:    RuleDiscountType,
		Message: "discountType must be 'FLAT' or 'PERCENT'",
	}
}

func checkDates(p *Payload) *ValidationError {
	for _, d := range []string{p.StartDate, p.EndDate} {
		if _, err := time.Parse(time.RFC3339, d); err != nil {
			return &ValidationError{
				Kind:    RuleDateFormat,
				Message: "invalid startDate or endDate (RFC 3339 expected)",
			}
		}
	}
	return nil
}

func checkDateOrder(p *Payload) *ValidationError {
	start, err := time.Parse(time.RFC3339, p.StartDate)
	if err != nil {
		return nil // checkDates runs first
	}
	end, err := time.Parse(time.RFC3339, p.EndDate)
	if err != nil {
		return nil
	}
	if start.After(end) {
		return &ValidationError{
			Kind:    RuleDateOrder,
			Message: "startDate must be <= endDate",
		}
	}
	return nil
}

func checkDiscountValue(p *Payload) *ValidationError {
	if p.DiscountValue == nil || p.DiscountValue.IsNegative() {
		return &ValidationError{
			Kind:    RuleDiscountValue,
			Message: "discountValue must be a non-negative number",
		}
	}
	return nil
}

// toCoupon converts a validated payload into a domain Coupon. A non-positive
// usage limit means unlimited, so it normalizes to nil.
func (p *Payload) toCoupon() *Coupon {
	start, _ := time.Parse(time.RFC3339, p.StartDate)
	end, _ := time.Parse(time.RFC3339, p.EndDate)

	c := &Coupon{
		Code:              p.Code,
		DiscountType:      DiscountType(p.DiscountType),
		DiscountValue:     *p.DiscountValue,
		StartDate:         start,
		EndDate:           end,
		MaxDiscountAmount: p.MaxDiscountAmount,
	}
	if p.UsageLimitPerUser != nil && *p.UsageLimitPerUser > 0 {
		c.UsageLimitPerUser = p.UsageLimitPerUser
	}
	c.Eligibility = p.Eligibility
	return c
}

package coupons

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/pkg/enums"
)

const dateLayout = "2006-01-02"

// Benefit is the type-specific part of a coupon.
type Benefit interface {
	Type() enums.CouponType
	// Discount returns the raw benefit for an order before clamping.
	Discount(orderAmount, shippingFee decimal.Decimal) decimal.Decimal
}

// Percentage takes Value percent off the order, capped by MaxDiscount when set.
type Percentage struct {
	Value       decimal.Decimal
	MaxDiscount *decimal.Decimal
}

func (Percentage) Type() enums.CouponType { return enums.CouponTypePercentage }

func (p Percentage) Discount(orderAmount, _ decimal.Decimal) decimal.Decimal {
	discount := orderAmount.Mul(p.Value).Div(decimal.NewFromInt(100))
	if p.MaxDiscount != nil && discount.GreaterThan(*p.MaxDiscount) {
		return *p.MaxDiscount
	}
	return discount
}

// Fixed takes a flat Value off the order, never more than the order itself.
type Fixed struct {
	Value decimal.Decimal
}

func (Fixed) Type() enums.CouponType { return enums.CouponTypeFixed }

func (f Fixed) Discount(orderAmount, _ decimal.Decimal) decimal.Decimal {
	return decimal.Min(f.Value, orderAmount)
}

// Shipping waives the shipping fee, up to MaxDiscount when set.
type Shipping struct {
	MaxDiscount *decimal.Decimal
}

func (Shipping) Type() enums.CouponType { return enums.CouponTypeShipping }

func (s Shipping) Discount(_, shippingFee decimal.Decimal) decimal.Decimal {
	if s.MaxDiscount != nil {
		return decimal.Min(shippingFee, *s.MaxDiscount)
	}
	return shippingFee
}

// Coupon is an immutable discount rule identified by a case-insensitive code.
type Coupon struct {
	Code           string
	Benefit        Benefit
	MinOrderAmount decimal.Decimal
	UsageLimit     int
	IsActive       bool
	ValidFrom      time.Time
	ValidUntil     time.Time
	Description    string
}

// Type returns the coupon type, or "" when the benefit is missing.
func (c Coupon) Type() enums.CouponType {
	if c.Benefit == nil {
		return ""
	}
	return c.Benefit.Type()
}

// ActiveAt reports whether the coupon is enabled and inside its validity window.
func (c Coupon) ActiveAt(now time.Time) bool {
	return c.IsActive && !now.Before(c.ValidFrom) && !now.After(c.ValidUntil)
}

// Matches compares codes case-insensitively.
func (c Coupon) Matches(code string) bool {
	return strings.EqualFold(c.Code, strings.TrimSpace(code))
}

type wireCoupon struct {
	Code           string           `json:"code"`
	Type           string           `json:"type"`
	Value          decimal.Decimal  `json:"value"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount"`
	MinOrderAmount decimal.Decimal  `json:"minOrderAmount"`
	UsageLimit     int              `json:"usageLimit"`
	IsActive       bool             `json:"isActive"`
	ValidFrom      string           `json:"validFrom"`
	ValidUntil     string           `json:"validUntil"`
	Description    string           `json:"description"`
}

// MarshalJSON writes the flat catalog format.
func (c Coupon) MarshalJSON() ([]byte, error) {
	wire := wireCoupon{
		Code:           c.Code,
		Type:           c.Type().String(),
		MinOrderAmount: c.MinOrderAmount,
		UsageLimit:     c.UsageLimit,
		IsActive:       c.IsActive,
		ValidFrom:      c.ValidFrom.UTC().Format(time.RFC3339Nano),
		ValidUntil:     c.ValidUntil.UTC().Format(time.RFC3339Nano),
		Description:    c.Description,
	}
	switch b := c.Benefit.(type) {
	case Percentage:
		wire.Value = b.Value
		wire.MaxDiscount = b.MaxDiscount
	case Fixed:
		wire.Value = b.Value
	case Shipping:
		wire.MaxDiscount = b.MaxDiscount
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reads the flat catalog format. Date-only bounds cover whole
// UTC days, so validUntil "2026-12-31" stays valid through that day.
func (c *Coupon) UnmarshalJSON(data []byte) error {
	var wire wireCoupon
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	couponType, err := enums.ParseCouponType(wire.Type)
	if err != nil {
		return fmt.Errorf("coupon %s: %w", wire.Code, err)
	}
	validFrom, err := parseBound(wire.ValidFrom, false)
	if err != nil {
		return fmt.Errorf("coupon %s validFrom: %w", wire.Code, err)
	}
	validUntil, err := parseBound(wire.ValidUntil, true)
	if err != nil {
		return fmt.Errorf("coupon %s validUntil: %w", wire.Code, err)
	}

	maxDiscount := wire.MaxDiscount
	if maxDiscount != nil && !maxDiscount.IsPositive() {
		maxDiscount = nil
	}

	var benefit Benefit
	switch couponType {
	case enums.CouponTypePercentage:
		benefit = Percentage{Value: wire.Value, MaxDiscount: maxDiscount}
	case enums.CouponTypeFixed:
		benefit = Fixed{Value: wire.Value}
	case enums.CouponTypeShipping:
		benefit = Shipping{MaxDiscount: maxDiscount}
	}

	*c = Coupon{
		Code:           strings.TrimSpace(wire.Code),
		Benefit:        benefit,
		MinOrderAmount: wire.MinOrderAmount,
		UsageLimit:     wire.UsageLimit,
		IsActive:       wire.IsActive,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		Description:    wire.Description,
	}
	return nil
}

func parseBound(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported date %q", value)
	}
	if endOfDay {
		return t.Add(24*time.Hour - time.Nanosecond), nil
	}
	return t, nil
}

// ValidateCatalog rejects documents with blank or duplicate codes and
// inverted validity windows.
func ValidateCatalog(coupons []Coupon) error {
	seen := make(map[string]struct{}, len(coupons))
	for i, c := range coupons {
		if c.Code == "" {
			return fmt.Errorf("coupon %d has no code", i)
		}
		key := strings.ToUpper(c.Code)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate coupon code %s", c.Code)
		}
		seen[key] = struct{}{}
		if c.Benefit == nil {
			return fmt.Errorf("coupon %s has no benefit", c.Code)
		}
		if c.ValidUntil.Before(c.ValidFrom) {
			return fmt.Errorf("coupon %s ends before it starts", c.Code)
		}
	}
	return nil
}

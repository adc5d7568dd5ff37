package enums

import (
	"fmt"
	"strings"
)

// CouponType selects how a coupon's benefit is computed.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
	CouponTypeShipping   CouponType = "shipping"
)

var validCouponTypes = []CouponType{
	CouponTypePercentage,
	CouponTypeFixed,
	CouponTypeShipping,
}

// String implements fmt.Stringer.
func (c CouponType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponType.
func (c CouponType) IsValid() bool {
	for _, candidate := range validCouponTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponType converts raw input into a CouponType.
func ParseCouponType(value string) (CouponType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validCouponTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon type %q", value)
}

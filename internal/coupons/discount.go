package coupons

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CalculateDiscount returns the benefit of coupon for an order, rounded to
// cents and never negative. A nil coupon or non-positive order yields zero.
func CalculateDiscount(coupon *Coupon, orderAmount, shippingFee decimal.Decimal) decimal.Decimal {
	if coupon == nil || coupon.Benefit == nil || !orderAmount.IsPositive() {
		return decimal.Zero
	}
	discount := coupon.Benefit.Discount(orderAmount, shippingFee)
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}

// Describe renders a short human summary such as
// "10% off (max 150.00) on orders over 1000.00".
func Describe(coupon Coupon) string {
	var desc string
	switch b := coupon.Benefit.(type) {
	case Percentage:
		desc = fmt.Sprintf("%s%% off", b.Value.String())
		if b.MaxDiscount != nil {
			desc += fmt.Sprintf(" (max %s)", b.MaxDiscount.StringFixed(2))
		}
	case Fixed:
		desc = fmt.Sprintf("%s off", b.Value.StringFixed(2))
	default:
		desc = coupon.Description
		if desc == "" {
			desc = "free shipping"
		}
	}
	if coupon.MinOrderAmount.IsPositive() {
		desc += fmt.Sprintf(" on orders over %s", coupon.MinOrderAmount.StringFixed(2))
	}
	return desc
}

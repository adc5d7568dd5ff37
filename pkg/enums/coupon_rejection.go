package enums

// CouponRejection explains why a coupon cannot be redeemed. The empty value means accepted.
type CouponRejection string

const (
	CouponRejectionNone           CouponRejection = ""
	CouponRejectionNotFound       CouponRejection = "not_found"
	CouponRejectionCancelled      CouponRejection = "cancelled"
	CouponRejectionNotYetValid    CouponRejection = "not_yet_valid"
	CouponRejectionExpired        CouponRejection = "expired"
	CouponRejectionBelowMinimum   CouponRejection = "below_minimum"
	CouponRejectionUsageExhausted CouponRejection = "usage_exhausted"
)

// String implements fmt.Stringer.
func (c CouponRejection) String() string {
	return string(c)
}

// MetricLabel returns the value used for metric labels, mapping acceptance to "valid".
func (c CouponRejection) MetricLabel() string {
	if c == CouponRejectionNone {
		return "valid"
	}
	return string(c)
}

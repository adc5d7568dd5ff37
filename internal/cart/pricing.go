package cart

import (
	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/internal/coupons"
	"github.com/sweetfrozen/storefront/pkg/config"
	"github.com/sweetfrozen/storefront/pkg/enums"
)

// PriceLookup resolves the unit price of a product.
type PriceLookup interface {
	PriceOf(productID string) (decimal.Decimal, bool)
}

// PriceFunc adapts a function to PriceLookup.
type PriceFunc func(productID string) (decimal.Decimal, bool)

func (f PriceFunc) PriceOf(productID string) (decimal.Decimal, bool) {
	return f(productID)
}

// Policy is the shipping rule applied to every cart.
type Policy struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPolicy waives the 50 shipping fee from 800 upwards.
var DefaultPolicy = Policy{
	FreeShippingThreshold: decimal.NewFromInt(800),
	ShippingFee:           decimal.NewFromInt(50),
}

// PolicyFromConfig maps the pricing configuration onto a Policy.
func PolicyFromConfig(cfg config.PricingConfig) Policy {
	return Policy{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
	}
}

// ShippingFor returns the fee charged for subtotal before any coupon.
func (p Policy) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.ShippingFee
}

// Breakdown is the priced summary of a cart. Total is subtotal minus discount
// plus the pre-coupon shipping fee. For shipping coupons Discount is the waived
// fee and Shipping is what remains charged, so the waiver already sits inside
// Shipping and the four fields do not add up as subtotal - discount + shipping.
type Breakdown struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
	AppliedCoupon *coupons.Coupon `json:"appliedCoupon"`
}

// Subtotal sums price times quantity over items whose product resolves.
func Subtotal(items []Item, prices PriceLookup) decimal.Decimal {
	subtotal := decimal.Zero
	if prices == nil {
		return subtotal
	}
	for _, item := range items {
		price, ok := prices.PriceOf(item.ProductID)
		if !ok {
			continue
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// Price computes the breakdown for items with an optional coupon. A shipping
// coupon only takes effect once the subtotal reaches its minimum order amount.
func Price(items []Item, coupon *coupons.Coupon, prices PriceLookup, policy Policy) Breakdown {
	subtotal := Subtotal(items, prices)
	baseShipping := policy.ShippingFor(subtotal)
	shipping := baseShipping
	discount := decimal.Zero

	if coupon != nil {
		switch coupon.Type() {
		case enums.CouponTypeShipping:
			if subtotal.GreaterThanOrEqual(coupon.MinOrderAmount) {
				discount = coupons.CalculateDiscount(coupon, subtotal, baseShipping)
				shipping = baseShipping.Sub(discount)
			}
		default:
			discount = coupons.CalculateDiscount(coupon, subtotal, baseShipping)
		}
	}

	total := subtotal.Sub(discount).Add(baseShipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Breakdown{
		Subtotal:      subtotal.Round(2),
		Discount:      discount.Round(2),
		Shipping:      shipping.Round(2),
		Total:         total.Round(2),
		AppliedCoupon: coupon,
	}
}

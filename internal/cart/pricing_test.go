package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/internal/coupons"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func priceTable(prices map[string]int64) PriceLookup {
	return PriceFunc(func(id string) (decimal.Decimal, bool) {
		p, ok := prices[id]
		return decimal.NewFromInt(p), ok
	})
}

func assertBreakdown(t *testing.T, got Breakdown, subtotal, discount, shipping, total int64) {
	t.Helper()
	if !got.Subtotal.Equal(d(subtotal)) || !got.Discount.Equal(d(discount)) || !got.Shipping.Equal(d(shipping)) || !got.Total.Equal(d(total)) {
		t.Fatalf("expected %d/%d/%d/%d, got %s/%s/%s/%s", subtotal, discount, shipping, total, got.Subtotal, got.Discount, got.Shipping, got.Total)
	}
}

func TestFreeShippingThreshold(t *testing.T) {
	t.Parallel()
	prices := priceTable(map[string]int64{"p800": 800, "p799": 799})

	assertBreakdown(t, Price([]Item{{ProductID: "p800", Quantity: 1}}, nil, prices, DefaultPolicy), 800, 0, 0, 800)
	assertBreakdown(t, Price([]Item{{ProductID: "p799", Quantity: 1}}, nil, prices, DefaultPolicy), 799, 0, 50, 849)
}

func TestMissingProductsContributeZero(t *testing.T) {
	t.Parallel()
	prices := priceTable(map[string]int64{"p1": 100})
	items := []Item{{ProductID: "p1", Quantity: 2}, {ProductID: "gone", Quantity: 4}}
	assertBreakdown(t, Price(items, nil, prices, DefaultPolicy), 200, 0, 50, 250)
}

func TestPercentageCap(t *testing.T) {
	t.Parallel()
	max := d(100)
	coupon := &coupons.Coupon{Code: "HALF", Benefit: coupons.Percentage{Value: d(50), MaxDiscount: &max}}
	prices := priceTable(map[string]int64{"p": 1000})
	assertBreakdown(t, Price([]Item{{ProductID: "p", Quantity: 1}}, coupon, prices, DefaultPolicy), 1000, 100, 0, 900)
}

func TestFixedCappedBySubtotal(t *testing.T) {
	t.Parallel()
	coupon := &coupons.Coupon{Code: "BIG", Benefit: coupons.Fixed{Value: d(200)}}
	prices := priceTable(map[string]int64{"p": 50})
	got := Price([]Item{{ProductID: "p", Quantity: 1}}, coupon, prices, DefaultPolicy)
	assertBreakdown(t, got, 50, 50, 50, 50)
}

func TestShippingCouponGating(t *testing.T) {
	t.Parallel()
	coupon := &coupons.Coupon{Code: "SHIP", Benefit: coupons.Shipping{}, MinOrderAmount: d(500)}
	prices := priceTable(map[string]int64{"p400": 400, "p600": 600, "p900": 900})

	assertBreakdown(t, Price([]Item{{ProductID: "p400", Quantity: 1}}, coupon, prices, DefaultPolicy), 400, 0, 50, 450)
	assertBreakdown(t, Price([]Item{{ProductID: "p600", Quantity: 1}}, coupon, prices, DefaultPolicy), 600, 50, 0, 600)
	assertBreakdown(t, Price([]Item{{ProductID: "p900", Quantity: 1}}, coupon, prices, DefaultPolicy), 900, 0, 0, 900)
}

func TestShippingCouponWaiverCountedOnce(t *testing.T) {
	t.Parallel()
	coupon := &coupons.Coupon{Code: "SHIP", Benefit: coupons.Shipping{}}
	prices := priceTable(map[string]int64{"p600": 600})

	got := Price([]Item{{ProductID: "p600", Quantity: 1}}, coupon, prices, DefaultPolicy)
	charged := got.Subtotal.Sub(got.Discount).Add(got.Shipping.Add(got.Discount))
	if !got.Total.Equal(charged) {
		t.Fatalf("expected total %s to be subtotal - waiver + base shipping, got %s", charged, got.Total)
	}
	if !got.Total.Equal(got.Subtotal.Add(got.Shipping)) {
		t.Fatalf("expected total %s to equal subtotal plus charged shipping", got.Total)
	}
}

func TestTotalNeverNegative(t *testing.T) {
	t.Parallel()
	prices := priceTable(map[string]int64{"p": 10})
	for _, qty := range []int{-3, 0, 1, 5} {
		coupon := &coupons.Coupon{Code: "X", Benefit: coupons.Fixed{Value: d(1000)}}
		got := Price([]Item{{ProductID: "p", Quantity: qty}}, coupon, prices, Policy{FreeShippingThreshold: d(800)})
		if got.Total.IsNegative() {
			t.Fatalf("negative total %s for qty %d", got.Total, qty)
		}
	}
}

func TestEndToEndPercentageScenario(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	prices := priceTable(map[string]int64{"ic-600": 600})

	if _, err := svc.Add(ctx, "c1", "ic-600", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	max := d(150)
	coupon := coupons.Coupon{
		Code:           "SWEET10",
		Benefit:        coupons.Percentage{Value: d(10), MaxDiscount: &max},
		MinOrderAmount: d(1000),
	}
	if _, err := svc.ApplyCoupon(ctx, "c1", coupon); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}

	got := svc.CalculatePricing(ctx, "c1", prices)
	assertBreakdown(t, got, 1200, 120, 0, 1080)
	if got.AppliedCoupon == nil || got.AppliedCoupon.Code != "SWEET10" {
		t.Fatalf("expected applied coupon in breakdown, got %+v", got.AppliedCoupon)
	}
	if sub := svc.Subtotal(ctx, "c1", prices); !sub.Equal(d(1200)) {
		t.Fatalf("unexpected subtotal %s", sub)
	}
}

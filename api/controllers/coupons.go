package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/api/middleware"
	"github.com/sweetfrozen/storefront/api/responses"
	"github.com/sweetfrozen/storefront/api/validators"
	"github.com/sweetfrozen/storefront/internal/coupons"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

type couponReader interface {
	ActiveCoupons(ctx context.Context) []coupons.Coupon
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) coupons.Validation
	Available(ctx context.Context, orderAmount, shippingFee decimal.Decimal) []coupons.Offer
	UsageFor(ctx context.Context) coupons.Usage
}

// cartAmounts yields the subtotal and pre-coupon shipping fee of a cart.
type cartAmounts interface {
	Amounts(ctx context.Context, cartID string) (subtotal, shipping decimal.Decimal)
}

type couponView struct {
	Coupon  coupons.Coupon `json:"coupon"`
	Summary string         `json:"summary"`
}

// CouponsActive lists the coupons currently on offer.
func CouponsActive(engine couponReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := engine.ActiveCoupons(r.Context())
		views := make([]couponView, 0, len(active))
		for _, c := range active {
			views = append(views, couponView{Coupon: c, Summary: coupons.Describe(c)})
		}
		responses.WriteSuccess(w, views)
	}
}

// CouponsAvailable annotates every active coupon with its eligibility against
// the caller's cart.
func CouponsAvailable(engine couponReader, carts cartAmounts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subtotal, shipping := carts.Amounts(r.Context(), middleware.CartIDFromContext(r.Context()))
		responses.WriteSuccess(w, engine.Available(r.Context(), subtotal, shipping))
	}
}

// CouponValidate checks ?code= against ?amount=, defaulting the amount to the
// cart subtotal. It never records usage.
func CouponValidate(engine couponReader, carts cartAmounts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := validators.SanitizeCode(r.URL.Query().Get("code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required").WithDetails(map[string]string{"code": "is required"}))
			return
		}
		subtotal, _ := carts.Amounts(r.Context(), middleware.CartIDFromContext(r.Context()))
		amount, err := validators.ParseQueryAmount(r, "amount", subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Validate(r.Context(), code, amount))
	}
}

// CouponUsage returns the signed-in shopper's redemption counters.
func CouponUsage(engine couponReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, engine.UsageFor(r.Context()))
	}
}

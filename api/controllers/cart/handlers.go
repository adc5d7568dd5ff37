package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sweetfrozen/storefront/api/middleware"
	"github.com/sweetfrozen/storefront/api/responses"
	"github.com/sweetfrozen/storefront/api/validators"
	cartsvc "github.com/sweetfrozen/storefront/internal/cart"
	"github.com/sweetfrozen/storefront/internal/checkout"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

type cartService interface {
	Policy() cartsvc.Policy
	Get(ctx context.Context, cartID string) cartsvc.Cart
	Add(ctx context.Context, cartID, productID string, qty int) (cartsvc.Cart, error)
	SetQuantity(ctx context.Context, cartID, productID string, qty int) (cartsvc.Cart, error)
	Remove(ctx context.Context, cartID, productID string) (cartsvc.Cart, error)
	Clear(ctx context.Context, cartID string) error
	RemoveCoupon(ctx context.Context, cartID string) (cartsvc.Cart, error)
}

type couponRedeemer interface {
	RedeemCoupon(ctx context.Context, cartID, code string) (checkout.RedeemResult, error)
}

// Handlers groups the cart endpoints around one cart service and catalog.
type Handlers struct {
	carts    cartService
	products productLookup
	redeemer couponRedeemer
	logg     *logger.Logger
}

func NewHandlers(carts cartService, products productLookup, redeemer couponRedeemer, logg *logger.Logger) *Handlers {
	return &Handlers{carts: carts, products: products, redeemer: redeemer, logg: logg}
}

func (h *Handlers) respond(w http.ResponseWriter, cartID string, c cartsvc.Cart) {
	responses.WriteSuccess(w, newView(cartID, c, h.products, h.carts.Policy()))
}

// Fetch returns the caller's cart.
func (h *Handlers) Fetch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := middleware.CartIDFromContext(r.Context())
		h.respond(w, cartID, h.carts.Get(r.Context(), cartID))
	}
}

// Pricing returns only the priced breakdown of the caller's cart.
func (h *Handlers) Pricing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := middleware.CartIDFromContext(r.Context())
		c := h.carts.Get(r.Context(), cartID)
		responses.WriteSuccess(w, cartsvc.Price(c.Items, c.AppliedCoupon, h.products, h.carts.Policy()))
	}
}

// AddItem adds a catalog product to the cart.
func (h *Handlers) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body AddItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), h.logg, w, err)
			return
		}
		if _, ok := h.products.Get(body.ProductID); !ok {
			responses.WriteError(r.Context(), h.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		cartID := middleware.CartIDFromContext(r.Context())
		c, err := h.carts.Add(r.Context(), cartID, body.ProductID, body.quantity())
		if err != nil {
			responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add to cart"))
			return
		}
		h.respond(w, cartID, c)
	}
}

// UpdateItem sets the quantity of a line already in the cart.
func (h *Handlers) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), h.logg, w, err)
			return
		}

		cartID := middleware.CartIDFromContext(r.Context())
		c, err := h.carts.SetQuantity(r.Context(), cartID, chi.URLParam(r, "productId"), body.quantity())
		if err != nil {
			responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart"))
			return
		}
		h.respond(w, cartID, c)
	}
}

// RemoveItem drops a line from the cart. Unknown products are a no-op.
func (h *Handlers) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := middleware.CartIDFromContext(r.Context())
		c, err := h.carts.Remove(r.Context(), cartID, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove from cart"))
			return
		}
		h.respond(w, cartID, c)
	}
}

// Clear empties the cart and detaches its coupon.
func (h *Handlers) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := middleware.CartIDFromContext(r.Context())
		if err := h.carts.Clear(r.Context(), cartID); err != nil {
			responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart"))
			return
		}
		h.respond(w, cartID, h.carts.Get(r.Context(), cartID))
	}
}

// RedeemCoupon validates a code against the cart and attaches it on success.
// A rejected code is still a 200 carrying the reason.
func (h *Handlers) RedeemCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body RedeemCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), h.logg, w, err)
			return
		}

		cartID := middleware.CartIDFromContext(r.Context())
		res, err := h.redeemer.RedeemCoupon(r.Context(), cartID, validators.SanitizeCode(body.Code))
		if err != nil {
			responses.WriteError(r.Context(), h.logg, w, err)
			return
		}
		c := h.carts.Get(r.Context(), cartID)
		responses.WriteSuccess(w, newRedeemView(cartID, res, c, h.products, h.carts.Policy()))
	}
}

// RemoveCoupon detaches the applied coupon. The consumed usage is not refunded.
func (h *Handlers) RemoveCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID := middleware.CartIDFromContext(r.Context())
		c, err := h.carts.RemoveCoupon(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), h.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove coupon"))
			return
		}
		h.respond(w, cartID, c)
	}
}

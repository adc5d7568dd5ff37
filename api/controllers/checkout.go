package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sweetfrozen/storefront/api/middleware"
	"github.com/sweetfrozen/storefront/api/responses"
	"github.com/sweetfrozen/storefront/api/validators"
	"github.com/sweetfrozen/storefront/internal/checkout"
	"github.com/sweetfrozen/storefront/internal/orders"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
	"github.com/sweetfrozen/storefront/pkg/logger"
	"github.com/sweetfrozen/storefront/pkg/pagination"
)

type checkoutCompleter interface {
	Complete(ctx context.Context, cartID string, card checkout.Card) (orders.Order, error)
}

type orderLister interface {
	ListPage(ctx context.Context, userKey string, params pagination.Params) (orders.Page, error)
}

// Checkout charges the caller's cart and returns the placed order.
func Checkout(svc checkoutCompleter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var card checkout.Card
		if err := validators.DecodeJSONBody(r, &card); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Complete(r.Context(), middleware.CartIDFromContext(r.Context()), card)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrdersList returns one page of the signed-in shopper's order history,
// oldest first. Paging is driven by ?limit= and ?cursor=.
func OrdersList(log orderLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required"))
			return
		}

		limit := 0
		if raw := validators.ParseQueryString(r, "limit", 4); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer").WithDetails(map[string]string{"limit": "is invalid"}))
				return
			}
			limit = n
		}

		page, err := log.ListPage(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor", 256),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}
		responses.WriteSuccess(w, page)
	}
}

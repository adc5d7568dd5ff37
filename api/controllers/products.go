package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sweetfrozen/storefront/api/responses"
	"github.com/sweetfrozen/storefront/api/validators"
	"github.com/sweetfrozen/storefront/internal/catalog"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

type productReader interface {
	List(category string) []catalog.Product
	Get(id string) (catalog.Product, bool)
}

// ProductList returns the catalog, optionally filtered by ?category=.
func ProductList(products productReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := validators.ParseQueryString(r, "category", 64)
		responses.WriteSuccess(w, products.List(category))
	}
}

func ProductDetail(products productReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := validators.SanitizeString(chi.URLParam(r, "productId"), 64)
		product, ok := products.Get(id)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

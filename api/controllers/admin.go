package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sweetfrozen/storefront/api/responses"
	"github.com/sweetfrozen/storefront/api/validators"
	"github.com/sweetfrozen/storefront/pkg/enums"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

// Reloadable is a catalog that can re-run its remote, cache and bundled tiers.
type Reloadable interface {
	Reload(ctx context.Context) error
	Source() enums.DataSource
}

type usageResetter interface {
	ResetUsage(ctx context.Context, userKey string) error
}

// AdminReloadCatalog reloads every named catalog and reports which tier served each.
func AdminReloadCatalog(catalogs map[string]Reloadable, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources := make(map[string]string, len(catalogs))
		for name, c := range catalogs {
			if err := c.Reload(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload "+name).WithDetails(map[string]string{"catalog": name}))
				return
			}
			sources[name] = c.Source().String()
		}
		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "sources", sources), "catalogs reloaded")
		}
		responses.WriteSuccess(w, sources)
	}
}

// AdminResetCouponUsage wipes the usage counters of one shopper.
func AdminResetCouponUsage(engine usageResetter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userKey := validators.SanitizeString(chi.URLParam(r, "userKey"), 128)
		if userKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user key is required"))
			return
		}
		if err := engine.ResetUsage(r.Context(), userKey); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package validators

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
)

// ParseQueryAmount reads a non-negative money amount from the query string.
// A missing parameter yields defaultVal.
func ParseQueryAmount(r *http.Request, key string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must not be negative").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseQueryString returns a trimmed, length-capped query parameter.
func ParseQueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}

package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

// CartIDHeader carries the anonymous cart handle between requests.
const CartIDHeader = "X-Cart-Id"

var cartIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// CartSession binds a cart to the request. Signed-in shoppers always use
// "user-<id>". Anonymous shoppers reuse the X-Cart-Id they were handed, or get
// a fresh one echoed back in the response header.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cartID string
			if userID := UserIDFromContext(r.Context()); userID != "" {
				cartID = "user-" + userID
			} else {
				cartID = strings.TrimSpace(r.Header.Get(CartIDHeader))
				if !cartIDPattern.MatchString(cartID) || strings.HasPrefix(cartID, "user-") {
					cartID = "guest-" + uuid.NewString()
				}
				w.Header().Set(CartIDHeader, cartID)
			}

			ctx := WithCartID(r.Context(), cartID)
			if logg != nil {
				ctx = logg.WithCartID(ctx, cartID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package coupons

import (
	"context"
	"strings"

	"github.com/sweetfrozen/storefront/pkg/logger"
)

const usageKeyPrefix = "coupons:usage:"

// Store is the JSON key-value layer the engine persists usage into.
type Store interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// Identity resolves the user whose usage is tracked. Anonymous callers
// report false.
type Identity interface {
	CurrentUserKey(ctx context.Context) (string, bool)
}

// Usage maps an upper-cased coupon code to its redemption count.
type Usage map[string]int

// Count returns the recorded redemptions for code.
func (u Usage) Count(code string) int {
	return u[strings.ToUpper(code)]
}

func usageKey(userKey string) string {
	return usageKeyPrefix + userKey
}

type usageStore struct {
	store Store
	logg  *logger.Logger
}

func (s usageStore) load(ctx context.Context, userKey string) Usage {
	usage := Usage{}
	if userKey == "" {
		return usage
	}
	if !s.store.Get(ctx, usageKey(userKey), &usage) || usage == nil {
		return Usage{}
	}
	return usage
}

func (s usageStore) save(ctx context.Context, userKey string, usage Usage) error {
	if userKey == "" {
		s.logg.Debug(ctx, "coupon usage not tracked for anonymous session")
		return nil
	}
	return s.store.Set(ctx, usageKey(userKey), usage)
}

func (s usageStore) reset(ctx context.Context, userKey string) error {
	if userKey == "" {
		return nil
	}
	return s.store.Remove(ctx, usageKey(userKey))
}

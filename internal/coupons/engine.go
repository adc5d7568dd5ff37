package coupons

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/internal/catalog"
	"github.com/sweetfrozen/storefront/internal/storage"
	"github.com/sweetfrozen/storefront/pkg/enums"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

// CacheKey is the storage key holding the last remote coupon document.
const CacheKey = "catalog:coupons"

//go:embed data/coupons.json
var bundledCoupons []byte

// BundledCatalog returns the embedded coupon document.
func BundledCatalog() []byte {
	return bundledCoupons
}

type engineMetrics interface {
	IncCouponValidation(result string)
	IncCouponRedemption(code string)
}

// Validation is the outcome of checking a code against an order amount.
type Validation struct {
	Valid   bool                  `json:"valid"`
	Reason  enums.CouponRejection `json:"reason,omitempty"`
	Message string                `json:"message"`
	Coupon  *Coupon               `json:"coupon,omitempty"`
}

// Redemption is the outcome of applying a code. Failed redemptions carry a
// zero discount and no coupon.
type Redemption struct {
	Success  bool                  `json:"success"`
	Reason   enums.CouponRejection `json:"reason,omitempty"`
	Message  string                `json:"message"`
	Discount decimal.Decimal       `json:"discount"`
	Coupon   *Coupon               `json:"coupon,omitempty"`
}

// Offer is an active coupon annotated with eligibility for the current order.
type Offer struct {
	Coupon      Coupon                `json:"coupon"`
	CanUse      bool                  `json:"canUse"`
	Reason      enums.CouponRejection `json:"reason,omitempty"`
	Message     string                `json:"message"`
	UsageLeft   int                   `json:"usageLeft"`
	Discount    decimal.Decimal       `json:"discount"`
	Description string                `json:"description"`
}

// Engine owns the coupon catalog and per-user usage counters.
type Engine struct {
	loader   *catalog.Loader[Coupon]
	usage    usageStore
	identity Identity
	logg     *logger.Logger
	metrics  engineMetrics
	locks    *storage.KeyLocks
	now      func() time.Time

	mu      sync.RWMutex
	coupons []Coupon
	source  enums.DataSource
}

// NewEngine builds an engine with an empty catalog; call Reload to populate it.
func NewEngine(loader *catalog.Loader[Coupon], store Store, identity Identity, logg *logger.Logger, metrics engineMetrics) (*Engine, error) {
	if loader == nil {
		return nil, fmt.Errorf("coupon loader required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage required")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Engine{
		loader:   loader,
		usage:    usageStore{store: store, logg: logg},
		identity: identity,
		logg:     logg,
		metrics:  metrics,
		locks:    storage.NewKeyLocks(),
		now:      time.Now,
	}, nil
}

// SetClock overrides the time source used for validity windows.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Reload resolves the coupon document again and swaps it in.
func (e *Engine) Reload(ctx context.Context) error {
	coupons, source, err := e.loader.Load(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.coupons = coupons
	e.source = source
	e.mu.Unlock()
	return nil
}

// Source reports which tier served the current catalog.
func (e *Engine) Source() enums.DataSource {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.source
}

func (e *Engine) snapshot() []Coupon {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.coupons
}

// ActiveCoupons returns enabled coupons whose validity window contains now.
func (e *Engine) ActiveCoupons(ctx context.Context) []Coupon {
	now := e.now()
	active := []Coupon{}
	for _, c := range e.snapshot() {
		if c.ActiveAt(now) {
			active = append(active, c)
		}
	}
	return active
}

// CouponByCode finds an enabled coupon by code. Disabled coupons are not found.
func (e *Engine) CouponByCode(ctx context.Context, code string) (Coupon, bool) {
	c, ok := e.lookup(code)
	if !ok || !c.IsActive {
		return Coupon{}, false
	}
	return c, true
}

func (e *Engine) lookup(code string) (Coupon, bool) {
	for _, c := range e.snapshot() {
		if c.Matches(code) {
			return c, true
		}
	}
	return Coupon{}, false
}

// Validate checks code against orderAmount for the current user. The first
// failing rule wins: unknown code, disabled, not yet started, expired, below
// minimum, usage exhausted.
func (e *Engine) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) Validation {
	userKey, _ := e.identity.CurrentUserKey(ctx)
	result := e.validate(ctx, userKey, code, orderAmount, e.usage.load(ctx, userKey))
	if e.metrics != nil {
		e.metrics.IncCouponValidation(result.Reason.MetricLabel())
	}
	return result
}

func (e *Engine) validate(ctx context.Context, userKey, code string, orderAmount decimal.Decimal, usage Usage) Validation {
	c, ok := e.lookup(code)
	if !ok {
		return rejected(enums.CouponRejectionNotFound, "coupon not found")
	}
	if !c.IsActive {
		return rejected(enums.CouponRejectionCancelled, "coupon cancelled")
	}
	now := e.now()
	if now.Before(c.ValidFrom) {
		return rejected(enums.CouponRejectionNotYetValid, fmt.Sprintf("coupon valid from %s", c.ValidFrom.Format(dateLayout)))
	}
	if now.After(c.ValidUntil) {
		return rejected(enums.CouponRejectionExpired, "coupon expired")
	}
	if orderAmount.LessThan(c.MinOrderAmount) {
		return rejected(enums.CouponRejectionBelowMinimum, fmt.Sprintf("minimum order amount is %s", c.MinOrderAmount.StringFixed(2)))
	}
	if userKey != "" && usage.Count(c.Code) >= c.UsageLimit {
		return rejected(enums.CouponRejectionUsageExhausted, "usage limit reached")
	}
	if userKey == "" {
		e.logg.Debug(e.logg.WithField(ctx, "coupon", c.Code), "validating coupon without usage tracking")
	}
	return Validation{Valid: true, Message: "coupon is valid", Coupon: &c}
}

func rejected(reason enums.CouponRejection, message string) Validation {
	return Validation{Reason: reason, Message: message}
}

// Apply validates code and, on success, records one redemption for the
// current user. Failed validations change nothing.
func (e *Engine) Apply(ctx context.Context, code string, orderAmount, shippingFee decimal.Decimal) (Redemption, error) {
	userKey, _ := e.identity.CurrentUserKey(ctx)
	if userKey != "" {
		unlock := e.locks.Lock(usageKey(userKey))
		defer unlock()
	}

	usage := e.usage.load(ctx, userKey)
	result := e.validate(ctx, userKey, code, orderAmount, usage)
	if e.metrics != nil {
		e.metrics.IncCouponValidation(result.Reason.MetricLabel())
	}
	if !result.Valid {
		return Redemption{Reason: result.Reason, Message: result.Message, Discount: decimal.Zero}, nil
	}

	c := result.Coupon
	discount := CalculateDiscount(c, orderAmount, shippingFee)
	usage[strings.ToUpper(c.Code)]++
	if err := e.usage.save(ctx, userKey, usage); err != nil {
		return Redemption{}, fmt.Errorf("record coupon usage: %w", err)
	}
	if e.metrics != nil {
		e.metrics.IncCouponRedemption(c.Code)
	}
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{"coupon": c.Code, "discount": discount.StringFixed(2)}), "coupon redeemed")

	return Redemption{Success: true, Message: result.Message, Discount: discount, Coupon: c}, nil
}

// Available lists the active coupons annotated for the current order. Usable
// offers come first, ordered by descending discount. Unusable offers carry a
// zero discount and keep catalog order.
func (e *Engine) Available(ctx context.Context, orderAmount, shippingFee decimal.Decimal) []Offer {
	userKey, _ := e.identity.CurrentUserKey(ctx)
	usage := e.usage.load(ctx, userKey)

	active := e.ActiveCoupons(ctx)
	offers := make([]Offer, 0, len(active))
	for _, c := range active {
		check := e.validate(ctx, userKey, c.Code, orderAmount, usage)
		left := c.UsageLimit - usage.Count(c.Code)
		if left < 0 {
			left = 0
		}
		discount := decimal.Zero
		if check.Valid {
			discount = CalculateDiscount(&c, orderAmount, shippingFee)
		}
		offers = append(offers, Offer{
			Coupon:      c,
			CanUse:      check.Valid,
			Reason:      check.Reason,
			Message:     check.Message,
			UsageLeft:   left,
			Discount:    discount,
			Description: Describe(c),
		})
	}

	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].CanUse != offers[j].CanUse {
			return offers[i].CanUse
		}
		return offers[i].Discount.GreaterThan(offers[j].Discount)
	})
	return offers
}

// ResetUsage clears every redemption recorded for userKey.
func (e *Engine) ResetUsage(ctx context.Context, userKey string) error {
	userKey = strings.TrimSpace(userKey)
	if userKey == "" {
		return fmt.Errorf("user key required")
	}
	unlock := e.locks.Lock(usageKey(userKey))
	defer unlock()
	if err := e.usage.reset(ctx, userKey); err != nil {
		return fmt.Errorf("reset coupon usage: %w", err)
	}
	e.logg.Info(e.logg.WithUserKey(ctx, userKey), "coupon usage reset")
	return nil
}

// UsageFor returns the recorded redemptions of the current user.
func (e *Engine) UsageFor(ctx context.Context) Usage {
	userKey, _ := e.identity.CurrentUserKey(ctx)
	return e.usage.load(ctx, userKey)
}

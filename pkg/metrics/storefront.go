package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records coupon, catalog, storage and checkout activity. A nil
// *Storefront is valid and records nothing.
type Storefront struct {
	couponValidations *prometheus.CounterVec
	couponRedemptions *prometheus.CounterVec
	catalogLoads      *prometheus.CounterVec
	storageFallbacks  *prometheus.CounterVec
	checkouts         *prometheus.CounterVec
	checkoutDuration  prometheus.Histogram
}

// NewStorefront registers the storefront metrics on the provided registerer.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	m := &Storefront{
		couponValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coupon_validations_total",
			Help: "Coupon validations by outcome.",
		}, []string{"result"}),
		couponRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coupon_redemptions_total",
			Help: "Successful coupon redemptions by coupon code.",
		}, []string{"code"}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Catalog loads by catalog and the tier that served them.",
		}, []string{"catalog", "source"}),
		storageFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storage_fallbacks_total",
			Help: "Storage operations the backend rejected, held in memory until it recovers.",
		}, []string{"op"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		checkoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration of checkout attempts in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.couponValidations,
		m.couponRedemptions,
		m.catalogLoads,
		m.storageFallbacks,
		m.checkouts,
		m.checkoutDuration,
	)
	return m
}

func (m *Storefront) IncCouponValidation(result string) {
	if m == nil || m.couponValidations == nil {
		return
	}
	m.couponValidations.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Storefront) IncCouponRedemption(code string) {
	if m == nil || m.couponRedemptions == nil {
		return
	}
	m.couponRedemptions.WithLabelValues(normalizeLabel(strings.ToUpper(code))).Inc()
}

func (m *Storefront) IncCatalogLoad(catalog, source string) {
	if m == nil || m.catalogLoads == nil {
		return
	}
	m.catalogLoads.WithLabelValues(normalizeLabel(catalog), normalizeLabel(source)).Inc()
}

func (m *Storefront) IncStorageFallback(op string) {
	if m == nil || m.storageFallbacks == nil {
		return
	}
	m.storageFallbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveCheckout records the outcome and duration of one checkout attempt.
func (m *Storefront) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

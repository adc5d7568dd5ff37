package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)

	m.IncCouponValidation("expired")
	m.IncCouponValidation("expired")
	m.IncCouponRedemption("save10")
	m.IncCatalogLoad("products", "bundled")
	m.IncStorageFallback("")
	m.ObserveCheckout("paid", 150*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{name: "coupon_validations_total", labels: map[string]string{"result": "expired"}, want: 2},
		{name: "coupon_redemptions_total", labels: map[string]string{"code": "SAVE10"}, want: 1},
		{name: "catalog_loads_total", labels: map[string]string{"catalog": "products", "source": "bundled"}, want: 1},
		{name: "storage_fallbacks_total", labels: map[string]string{"op": "unknown"}, want: 1},
		{name: "checkouts_total", labels: map[string]string{"outcome": "paid"}, want: 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.labels)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s expected %v got %v", c.name, c.want, got)
		}
	}
}

func TestNilStorefrontIsSafe(t *testing.T) {
	var m *Storefront
	m.IncCouponValidation("valid")
	m.IncCouponRedemption("X")
	m.IncCatalogLoad("coupons", "cache")
	m.IncStorageFallback("get")
	m.ObserveCheckout("failed", time.Second)

	NewStorefront(nil).IncCouponValidation("valid")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("metric %s%v not found", name, labels)
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, pair := range pairs {
		if want[pair.GetName()] != pair.GetValue() {
			return false
		}
	}
	return true
}

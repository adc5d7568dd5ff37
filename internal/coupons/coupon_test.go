package coupons

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetfrozen/storefront/pkg/enums"
)

func ptr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCalculateDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   *Coupon
		amount   decimal.Decimal
		shipping decimal.Decimal
		want     decimal.Decimal
	}{
		{"nil coupon", nil, dec(100), dec(50), decimal.Zero},
		{"non-positive amount", &Coupon{Benefit: Fixed{Value: dec(10)}}, decimal.Zero, dec(50), decimal.Zero},
		{"percentage capped", &Coupon{Benefit: Percentage{Value: dec(50), MaxDiscount: ptr(100)}}, dec(1000), dec(0), dec(100)},
		{"percentage under cap", &Coupon{Benefit: Percentage{Value: dec(10), MaxDiscount: ptr(150)}}, dec(1200), dec(0), dec(120)},
		{"percentage uncapped", &Coupon{Benefit: Percentage{Value: dec(15)}}, decimal.RequireFromString("99.99"), dec(0), decimal.RequireFromString("15")},
		{"fixed capped by order", &Coupon{Benefit: Fixed{Value: dec(200)}}, dec(50), dec(50), dec(50)},
		{"fixed", &Coupon{Benefit: Fixed{Value: dec(200)}}, dec(500), dec(50), dec(200)},
		{"shipping", &Coupon{Benefit: Shipping{}}, dec(600), dec(50), dec(50)},
		{"shipping capped", &Coupon{Benefit: Shipping{MaxDiscount: ptr(30)}}, dec(600), dec(50), dec(30)},
		{"negative fixed clamps", &Coupon{Benefit: Fixed{Value: dec(-5)}}, dec(100), dec(0), decimal.Zero},
	}
	for _, tc := range tests {
		got := CalculateDiscount(tc.coupon, tc.amount, tc.shipping)
		if !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestCouponJSONFlatFormat(t *testing.T) {
	raw := `{"code":"SWEET10","type":"Percentage","value":10,"maxDiscount":150,"minOrderAmount":1000,"usageLimit":3,"isActive":true,"validFrom":"2026-01-01","validUntil":"2026-12-31","description":"10% off"}`

	var c Coupon
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, enums.CouponTypePercentage, c.Type())
	p, ok := c.Benefit.(Percentage)
	require.True(t, ok)
	assert.True(t, p.MaxDiscount.Equal(dec(150)))
	assert.True(t, c.ActiveAt(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)), "date-only end covers the whole day")
	assert.False(t, c.ActiveAt(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))

	encoded, err := json.Marshal(c)
	require.NoError(t, err)
	var back Coupon
	require.NoError(t, json.Unmarshal(encoded, &back))
	assert.Equal(t, c.Code, back.Code)
	assert.True(t, back.ValidUntil.Equal(c.ValidUntil))
	assert.Equal(t, c.Benefit.Type(), back.Benefit.Type())
}

func TestCouponJSONRejectsUnknownType(t *testing.T) {
	var c Coupon
	err := json.Unmarshal([]byte(`{"code":"X","type":"bogo","validFrom":"2026-01-01","validUntil":"2026-02-01"}`), &c)
	require.Error(t, err)
}

func TestZeroMaxDiscountMeansUncapped(t *testing.T) {
	var c Coupon
	require.NoError(t, json.Unmarshal([]byte(`{"code":"S","type":"shipping","maxDiscount":0,"validFrom":"2026-01-01","validUntil":"2026-02-01"}`), &c))
	assert.Nil(t, c.Benefit.(Shipping).MaxDiscount)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "50.00 off on orders over 300.00", Describe(Coupon{Benefit: Fixed{Value: dec(50)}, MinOrderAmount: dec(300)}))
	assert.Equal(t, "Free delivery", Describe(Coupon{Benefit: Shipping{}, Description: "Free delivery"}))
	assert.Equal(t, "20% off", Describe(Coupon{Benefit: Percentage{Value: dec(20)}}))
}

func TestValidateCatalog(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	good := Coupon{Code: "A", Benefit: Fixed{Value: dec(1)}, ValidFrom: from, ValidUntil: from.Add(time.Hour)}
	require.NoError(t, ValidateCatalog([]Coupon{good}))

	dup := good
	dup.Code = "a"
	require.Error(t, ValidateCatalog([]Coupon{good, dup}))

	inverted := good
	inverted.ValidUntil = from.Add(-time.Hour)
	require.Error(t, ValidateCatalog([]Coupon{inverted}))
}

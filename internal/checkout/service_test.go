package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetfrozen/storefront/internal/cart"
	"github.com/sweetfrozen/storefront/internal/catalog"
	"github.com/sweetfrozen/storefront/internal/coupons"
	"github.com/sweetfrozen/storefront/internal/orders"
	"github.com/sweetfrozen/storefront/internal/payment"
	"github.com/sweetfrozen/storefront/internal/storage"
	"github.com/sweetfrozen/storefront/pkg/enums"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
)

type userIdentity string

func (u userIdentity) CurrentUserKey(context.Context) (string, bool) {
	return string(u), u != ""
}

type recordingPublisher struct {
	published []orders.Order
	err       error
}

func (r *recordingPublisher) PublishOrderPlaced(_ context.Context, order orders.Order) error {
	r.published = append(r.published, order)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

type outcomeRecorder map[string]int

func (o outcomeRecorder) ObserveCheckout(outcome string, _ time.Duration) { o[outcome]++ }

const couponDoc = `[
  {"code":"SWEET10","type":"percentage","value":10,"maxDiscount":150,"minOrderAmount":1000,"usageLimit":1,"isActive":true,"validFrom":"2020-01-01","validUntil":"2099-12-31","description":"10% off"},
  {"code":"FREESHIP","type":"shipping","value":0,"maxDiscount":null,"minOrderAmount":100,"usageLimit":5,"isActive":true,"validFrom":"2020-01-01","validUntil":"2099-12-31","description":"Free delivery"}
]`

type fixture struct {
	svc       *Service
	carts     *cart.Service
	log       *orders.Log
	publisher *recordingPublisher
	outcomes  outcomeRecorder
}

func newFixture(t *testing.T, user string) fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewStore(nil, nil, nil)
	identity := userIdentity(user)

	products := catalog.NewProducts(catalog.NewLoader[catalog.Product]("products", catalog.ProductsCacheKey, catalog.BundledProducts(), nil))
	require.NoError(t, products.Reload(ctx))

	engine, err := coupons.NewEngine(catalog.NewLoader[coupons.Coupon]("coupons", coupons.CacheKey, []byte(couponDoc), nil), store, identity, nil, nil)
	require.NoError(t, err)
	require.NoError(t, engine.Reload(ctx))

	carts, err := cart.NewService(store, cart.DefaultPolicy, nil)
	require.NoError(t, err)

	log := orders.NewLog(store)
	publisher := &recordingPublisher{}
	outcomes := outcomeRecorder{}
	svc, err := NewService(ServiceParams{
		Carts:     carts,
		Products:  products,
		Coupons:   engine,
		Gateway:   payment.NewGateway(0),
		Orders:    log,
		Publisher: publisher,
		Identity:  identity,
		Metrics:   outcomes,
	})
	require.NoError(t, err)
	return fixture{svc: svc, carts: carts, log: log, publisher: publisher, outcomes: outcomes}
}

var goodCard = Card{Number: "4242 4242 4242 4242", Name: "Somchai", Expiry: "12/30", CVV: "123"}

func TestRedeemCouponAttachesAndReprices(t *testing.T) {
	f := newFixture(t, "u-1")
	ctx := context.Background()

	_, err := f.carts.Add(ctx, "c1", "ic-005", 20) // 65 x 20 = 1300
	require.NoError(t, err)

	res, err := f.svc.RedeemCoupon(ctx, "c1", "sweet10")
	require.NoError(t, err)
	require.True(t, res.Redemption.Success)
	assert.True(t, res.Redemption.Discount.Equal(decimal.NewFromInt(130)))
	assert.True(t, res.Pricing.Total.Equal(decimal.NewFromInt(1170)))

	again, err := f.svc.RedeemCoupon(ctx, "c1", "SWEET10")
	require.NoError(t, err)
	assert.False(t, again.Redemption.Success)
	assert.Equal(t, enums.CouponRejectionUsageExhausted, again.Redemption.Reason)
	applied, ok := f.carts.AppliedCoupon(ctx, "c1")
	require.True(t, ok, "earlier coupon stays attached")
	assert.Equal(t, "SWEET10", applied.Code)
}

func TestRedeemRejectedLeavesCartUntouched(t *testing.T) {
	f := newFixture(t, "u-1")
	ctx := context.Background()
	_, err := f.carts.Add(ctx, "c1", "ic-001", 1)
	require.NoError(t, err)

	res, err := f.svc.RedeemCoupon(ctx, "c1", "SWEET10")
	require.NoError(t, err)
	assert.False(t, res.Redemption.Success)
	assert.Equal(t, enums.CouponRejectionBelowMinimum, res.Redemption.Reason)
	_, ok := f.carts.AppliedCoupon(ctx, "c1")
	assert.False(t, ok)
}

func TestCompletePlacesOrder(t *testing.T) {
	f := newFixture(t, "u-1")
	ctx := context.Background()
	_, err := f.carts.Add(ctx, "c1", "ic-001", 4) // 180
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, "c1", "ghost", 3)
	require.NoError(t, err)

	res, err := f.svc.RedeemCoupon(ctx, "c1", "FREESHIP")
	require.NoError(t, err)
	require.True(t, res.Redemption.Success)

	order, err := f.svc.Complete(ctx, "c1", goodCard)
	require.NoError(t, err)
	assert.Equal(t, "u-1", order.UserKey)
	assert.Equal(t, "FREESHIP", order.CouponCode)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(180)))
	assert.True(t, order.Shipping.IsZero())
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Classic Vanilla", order.Lines[0].Name)

	assert.Len(t, f.log.List(ctx, "u-1"), 1)
	assert.Len(t, f.publisher.published, 1)
	assert.Equal(t, 0, f.carts.Count(ctx, "c1"))
	assert.Equal(t, 1, f.outcomes["completed"])
}

func TestCompleteFailures(t *testing.T) {
	ctx := context.Background()

	anon := newFixture(t, "")
	_, err := anon.svc.Complete(ctx, "c1", goodCard)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	f := newFixture(t, "u-1")
	_, err = f.svc.Complete(ctx, "c1", goodCard)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart))

	_, err = f.carts.Add(ctx, "c1", "ic-002", 1)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, "c1", Card{Number: "1234 5678 9012 3", Name: "x", Expiry: "1/30", CVV: "1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentDeclined))
	assert.Equal(t, 1, f.carts.Count(ctx, "c1"), "declined payment keeps the cart")
	assert.Empty(t, f.log.List(ctx, "u-1"))
	assert.Equal(t, 1, f.outcomes["declined"])
	assert.Equal(t, 1, f.outcomes["empty"])
}

func TestPublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t, "u-1")
	f.publisher.err = errors.New("broker down")
	ctx := context.Background()
	_, err := f.carts.Add(ctx, "c1", "ic-003", 1)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, "c1", goodCard)
	require.NoError(t, err)
	assert.Len(t, f.log.List(ctx, "u-1"), 1)
}

func TestAmountsReflectShippingPolicy(t *testing.T) {
	f := newFixture(t, "u-1")
	ctx := context.Background()

	_, err := f.carts.Add(ctx, "c1", "ic-001", 2) // 90
	require.NoError(t, err)
	subtotal, shipping := f.svc.Amounts(ctx, "c1")
	assert.True(t, subtotal.Equal(decimal.NewFromInt(90)))
	assert.True(t, shipping.Equal(decimal.NewFromInt(50)))

	_, err = f.carts.Add(ctx, "c1", "ic-005", 20) // +1300
	require.NoError(t, err)
	subtotal, shipping = f.svc.Amounts(ctx, "c1")
	assert.True(t, subtotal.Equal(decimal.NewFromInt(1390)))
	assert.True(t, shipping.IsZero())
}

package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/internal/cart"
	"github.com/sweetfrozen/storefront/internal/catalog"
	"github.com/sweetfrozen/storefront/internal/coupons"
	"github.com/sweetfrozen/storefront/internal/orders"
	"github.com/sweetfrozen/storefront/internal/payment"
	"github.com/sweetfrozen/storefront/pkg/enums"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

type productCatalog interface {
	cart.PriceLookup
	Get(id string) (catalog.Product, bool)
}

type couponRedeemer interface {
	Apply(ctx context.Context, code string, orderAmount, shippingFee decimal.Decimal) (coupons.Redemption, error)
}

type paymentGateway interface {
	Charge(ctx context.Context, charge payment.Charge) (payment.Receipt, error)
}

type orderLog interface {
	Append(ctx context.Context, order orders.Order) error
}

type checkoutMetrics interface {
	ObserveCheckout(outcome string, duration time.Duration)
}

// Identity resolves the shopper placing the order.
type Identity interface {
	CurrentUserKey(ctx context.Context) (string, bool)
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Carts     *cart.Service
	Products  productCatalog
	Coupons   couponRedeemer
	Gateway   paymentGateway
	Orders    orderLog
	Publisher orders.Publisher
	Identity  Identity
	Logger    *logger.Logger
	Metrics   checkoutMetrics
}

// Service prices carts, redeems coupons into them and turns them into orders.
type Service struct {
	carts     *cart.Service
	products  productCatalog
	coupons   couponRedeemer
	gateway   paymentGateway
	orders    orderLog
	publisher orders.Publisher
	identity  Identity
	logg      *logger.Logger
	metrics   checkoutMetrics
	now       func() time.Time
}

// NewService constructs a checkout service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon engine required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order log required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity required")
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = orders.NoopPublisher{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		carts:     params.Carts,
		products:  params.Products,
		coupons:   params.Coupons,
		gateway:   params.Gateway,
		orders:    params.Orders,
		publisher: publisher,
		identity:  params.Identity,
		logg:      logg,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

// Quote prices the cart against the live catalog.
func (s *Service) Quote(ctx context.Context, cartID string) cart.Breakdown {
	return s.carts.CalculatePricing(ctx, cartID, s.products)
}

// Amounts returns the cart subtotal and the shipping fee owed on it before
// any coupon. These are the inputs coupon eligibility is judged on.
func (s *Service) Amounts(ctx context.Context, cartID string) (subtotal, shipping decimal.Decimal) {
	subtotal = s.carts.Subtotal(ctx, cartID, s.products)
	return subtotal, s.carts.Policy().ShippingFor(subtotal)
}

// RedeemResult pairs the redemption outcome with the repriced cart.
type RedeemResult struct {
	Redemption coupons.Redemption `json:"redemption"`
	Pricing    cart.Breakdown     `json:"pricing"`
}

// RedeemCoupon validates code against the current cart subtotal, records the
// usage and attaches the coupon to the cart. A rejected code leaves the cart
// untouched.
func (s *Service) RedeemCoupon(ctx context.Context, cartID, code string) (RedeemResult, error) {
	subtotal, shipping := s.Amounts(ctx, cartID)

	redemption, err := s.coupons.Apply(ctx, code, subtotal, shipping)
	if err != nil {
		return RedeemResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeem coupon")
	}
	if redemption.Success && redemption.Coupon != nil {
		if _, err := s.carts.ApplyCoupon(ctx, cartID, *redemption.Coupon); err != nil {
			return RedeemResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach coupon")
		}
	}
	return RedeemResult{Redemption: redemption, Pricing: s.Quote(ctx, cartID)}, nil
}

// Card carries the payment details entered at checkout.
type Card struct {
	Number string `json:"cardNumber" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Expiry string `json:"exp" validate:"required"`
	CVV    string `json:"cvv" validate:"required"`
}

// Complete charges the cart total, records the order, publishes the
// order.placed event and empties the cart.
func (s *Service) Complete(ctx context.Context, cartID string, card Card) (orders.Order, error) {
	start := s.now()
	order, outcome, err := s.complete(ctx, cartID, card)
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcome, s.now().Sub(start))
	}
	return order, err
}

func (s *Service) complete(ctx context.Context, cartID string, card Card) (orders.Order, string, error) {
	userKey, ok := s.identity.CurrentUserKey(ctx)
	if !ok || userKey == "" {
		return orders.Order{}, "unauthenticated", pkgerrors.New(pkgerrors.CodeUnauthorized, "login required to checkout")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"user_key": userKey, "cart_id": cartID})

	current := s.carts.Get(ctx, cartID)
	lines := s.lines(current.Items)
	if len(lines) == 0 {
		return orders.Order{}, "empty", pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	pricing := cart.Price(current.Items, current.AppliedCoupon, s.products, s.carts.Policy())

	receipt, err := s.gateway.Charge(ctx, payment.Charge{
		Amount:     pricing.Total,
		CardNumber: card.Number,
		Name:       card.Name,
		Expiry:     card.Expiry,
		CVV:        card.CVV,
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "payment failed")
		return orders.Order{}, "declined", err
	}

	order := orders.Order{
		ID:            "ORD-" + uuid.NewString(),
		UserKey:       userKey,
		Lines:         lines,
		Subtotal:      pricing.Subtotal,
		Discount:      pricing.Discount,
		Shipping:      pricing.Shipping,
		Total:         pricing.Total,
		TransactionID: receipt.TransactionID,
		Status:        enums.OrderStatusPaid,
		CreatedAt:     s.now().UTC(),
	}
	if current.AppliedCoupon != nil {
		order.CouponCode = current.AppliedCoupon.Code
	}

	if err := s.orders.Append(ctx, order); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "txn_id", receipt.TransactionID), "order log append failed after payment", err)
		return orders.Order{}, "error", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order")
	}
	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID), "publish order event failed", err)
	}
	if err := s.carts.Clear(ctx, cartID); err != nil {
		s.logg.Error(ctx, "clear cart after checkout failed", err)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_id": order.ID, "total": order.Total.StringFixed(2)}), "order placed")
	return order, "completed", nil
}

func (s *Service) lines(items []cart.Item) []orders.Line {
	lines := make([]orders.Line, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		product, ok := s.products.Get(item.ProductID)
		if !ok {
			continue
		}
		lines = append(lines, orders.Line{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}
	return lines
}

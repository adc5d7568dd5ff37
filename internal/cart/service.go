package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/internal/coupons"
	"github.com/sweetfrozen/storefront/internal/storage"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

// Store is the JSON key-value layer carts are persisted in.
type Store interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// Service manages carts addressed by cart id. Missing products or items are
// never errors; only storage encoding failures are reported.
type Service struct {
	store  Store
	policy Policy
	locks  *storage.KeyLocks
	logg   *logger.Logger
}

// NewService builds a cart service over store.
func NewService(store Store, policy Policy, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("storage required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		store:  store,
		policy: policy,
		locks:  storage.NewKeyLocks(),
		logg:   logg,
	}, nil
}

// Policy returns the shipping policy applied by CalculatePricing.
func (s *Service) Policy() Policy {
	return s.policy
}

// Get returns the cart, empty when absent or unreadable.
func (s *Service) Get(ctx context.Context, cartID string) Cart {
	var c Cart
	if !s.store.Get(ctx, storageKey(cartID), &c) {
		return Cart{Items: []Item{}}
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c
}

func (s *Service) mutate(ctx context.Context, cartID string, fn func(*Cart) bool) (Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return Cart{}, fmt.Errorf("cart id required")
	}
	unlock := s.locks.Lock(storageKey(cartID))
	defer unlock()

	c := s.Get(ctx, cartID)
	if !fn(&c) {
		return c, nil
	}
	if err := s.store.Set(ctx, storageKey(cartID), c); err != nil {
		return c, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Add increases the quantity of productID by qty, appending a new line when
// the product is not yet in the cart.
func (s *Service) Add(ctx context.Context, cartID, productID string, qty int) (Cart, error) {
	return s.mutate(ctx, cartID, func(c *Cart) bool {
		if i := c.find(productID); i >= 0 {
			c.Items[i].Quantity += qty
		} else {
			c.Items = append(c.Items, Item{ProductID: productID, Quantity: qty})
		}
		return true
	})
}

// SetQuantity sets the quantity of an existing line to max(1, qty).
func (s *Service) SetQuantity(ctx context.Context, cartID, productID string, qty int) (Cart, error) {
	return s.mutate(ctx, cartID, func(c *Cart) bool {
		i := c.find(productID)
		if i < 0 {
			return false
		}
		c.Items[i].Quantity = max(1, qty)
		return true
	})
}

// Remove drops the line for productID.
func (s *Service) Remove(ctx context.Context, cartID, productID string) (Cart, error) {
	return s.mutate(ctx, cartID, func(c *Cart) bool {
		i := c.find(productID)
		if i < 0 {
			return false
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	})
}

// Clear empties the cart and detaches any coupon.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	_, err := s.mutate(ctx, cartID, func(c *Cart) bool {
		*c = Cart{Items: []Item{}}
		return true
	})
	if err == nil {
		s.logg.Debug(s.logg.WithCartID(ctx, cartID), "cart cleared")
	}
	return err
}

// Count sums the quantities in the cart.
func (s *Service) Count(ctx context.Context, cartID string) int {
	return s.Get(ctx, cartID).Count()
}

// Subtotal prices the cart items with prices.
func (s *Service) Subtotal(ctx context.Context, cartID string, prices PriceLookup) decimal.Decimal {
	return Subtotal(s.Get(ctx, cartID).Items, prices).Round(2)
}

// ApplyCoupon attaches a snapshot of coupon, replacing any previous one.
func (s *Service) ApplyCoupon(ctx context.Context, cartID string, coupon coupons.Coupon) (Cart, error) {
	if coupon.Benefit == nil {
		return Cart{}, fmt.Errorf("coupon %s has no benefit", coupon.Code)
	}
	return s.mutate(ctx, cartID, func(c *Cart) bool {
		snapshot := coupon
		c.AppliedCoupon = &snapshot
		return true
	})
}

// RemoveCoupon detaches the applied coupon.
func (s *Service) RemoveCoupon(ctx context.Context, cartID string) (Cart, error) {
	return s.mutate(ctx, cartID, func(c *Cart) bool {
		if c.AppliedCoupon == nil {
			return false
		}
		c.AppliedCoupon = nil
		return true
	})
}

// AppliedCoupon returns the attached coupon snapshot, if any.
func (s *Service) AppliedCoupon(ctx context.Context, cartID string) (coupons.Coupon, bool) {
	c := s.Get(ctx, cartID)
	if c.AppliedCoupon == nil {
		return coupons.Coupon{}, false
	}
	return *c.AppliedCoupon, true
}

// CalculatePricing prices the stored cart under the service policy.
func (s *Service) CalculatePricing(ctx context.Context, cartID string, prices PriceLookup) Breakdown {
	c := s.Get(ctx, cartID)
	return Price(c.Items, c.AppliedCoupon, prices, s.policy)
}

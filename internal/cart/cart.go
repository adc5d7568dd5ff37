package cart

import "github.com/sweetfrozen/storefront/internal/coupons"

const keyPrefix = "cart:"

// Item is one line of the cart. Product ids are unique within a cart.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart holds the line items and the coupon snapshot attached to them.
type Cart struct {
	Items         []Item          `json:"items"`
	AppliedCoupon *coupons.Coupon `json:"appliedCoupon"`
}

// Count sums the item quantities.
func (c Cart) Count() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c Cart) find(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func storageKey(cartID string) string {
	return keyPrefix + cartID
}

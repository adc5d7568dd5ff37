package orders

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/pkg/enums"
)

// Line is one purchased product with the unit price charged.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Order is an immutable record of a completed checkout.
type Order struct {
	ID            string            `json:"id"`
	UserKey       string            `json:"userKey"`
	Lines         []Line            `json:"lines"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Discount      decimal.Decimal   `json:"discount"`
	Shipping      decimal.Decimal   `json:"shipping"`
	Total         decimal.Decimal   `json:"total"`
	CouponCode    string            `json:"couponCode,omitempty"`
	TransactionID string            `json:"txnId"`
	Status        enums.OrderStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}

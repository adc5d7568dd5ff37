package cart

import (
	"github.com/shopspring/decimal"
	cartsvc "github.com/sweetfrozen/storefront/internal/cart"
	"github.com/sweetfrozen/storefront/internal/catalog"
	"github.com/sweetfrozen/storefront/internal/checkout"
	"github.com/sweetfrozen/storefront/internal/coupons"
)

// Line is a cart item joined with its catalog entry. Lines whose product is no
// longer in the catalog are reported as unavailable and priced at zero.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Available bool            `json:"available"`
}

// View is the cart payload returned by every cart endpoint.
type View struct {
	CartID        string            `json:"cartId"`
	Items         []Line            `json:"items"`
	Count         int               `json:"count"`
	AppliedCoupon *coupons.Coupon   `json:"appliedCoupon"`
	Pricing       cartsvc.Breakdown `json:"pricing"`
}

// RedeemView reports a redemption together with the repriced cart.
type RedeemView struct {
	Redemption coupons.Redemption `json:"redemption"`
	Cart       View               `json:"cart"`
}

type productLookup interface {
	cartsvc.PriceLookup
	Get(id string) (catalog.Product, bool)
}

func newView(cartID string, c cartsvc.Cart, products productLookup, policy cartsvc.Policy) View {
	lines := make([]Line, 0, len(c.Items))
	for _, item := range c.Items {
		line := Line{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: decimal.Zero, LineTotal: decimal.Zero}
		if product, ok := products.Get(item.ProductID); ok {
			line.Name = product.Name
			line.Image = product.Image
			line.UnitPrice = product.Price
			line.LineTotal = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.Available = true
		}
		lines = append(lines, line)
	}
	return View{
		CartID:        cartID,
		Items:         lines,
		Count:         c.Count(),
		AppliedCoupon: c.AppliedCoupon,
		Pricing:       cartsvc.Price(c.Items, c.AppliedCoupon, products, policy),
	}
}

func newRedeemView(cartID string, res checkout.RedeemResult, c cartsvc.Cart, products productLookup, policy cartsvc.Policy) RedeemView {
	return RedeemView{Redemption: res.Redemption, Cart: newView(cartID, c, products, policy)}
}

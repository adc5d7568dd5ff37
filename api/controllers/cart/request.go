package cart

import "math"

// AddItemRequest adds quantity units of a product. Quantity defaults to one.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,gt=0,max=999"`
}

func (r AddItemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// UpdateItemRequest sets the quantity of a line. Fractional input is floored
// and anything below one becomes one.
type UpdateItemRequest struct {
	Quantity float64 `json:"quantity" validate:"max=999"`
}

func (r UpdateItemRequest) quantity() int {
	q := math.Floor(r.Quantity)
	if math.IsNaN(q) || q < 1 {
		return 1
	}
	return int(q)
}

// RedeemCouponRequest carries the code typed by the shopper.
type RedeemCouponRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

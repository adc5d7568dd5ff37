package enums

// OrderStatus tracks the lifecycle of a placed order. The log is append-only, so
// only the states reachable at checkout exist.
type OrderStatus string

const (
	OrderStatusPaid OrderStatus = "paid"
)

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

package enums

import "fmt"

// OrderStatus tracks the lifecycle of a pickup order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusInTransit  OrderStatus = "in_transit"
	OrderStatusPickedUp   OrderStatus = "picked_up"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusAssigned,
	OrderStatusInTransit,
	OrderStatusPickedUp,
	OrderStatusProcessing,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// AssignableOrderStatuses are the states an unassigned order may be in
// when the assignment transaction claims it.
var AssignableOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order can no longer change state.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusCancelled
}

// RequiresAgent reports whether the status implies a non-null assigned agent.
func (o OrderStatus) RequiresAgent() bool {
	switch o {
	case OrderStatusAssigned, OrderStatusInTransit, OrderStatusPickedUp, OrderStatusProcessing, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

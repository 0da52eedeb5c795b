package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	"github.com/greencycle-tech/ewaste-backend/pkg/types"
)

// CreateOrderItem is one declared e-waste line on a new order.
type CreateOrderItem struct {
	Category       string              `json:"category" validate:"required"`
	Condition      enums.ItemCondition `json:"condition" validate:"required"`
	Quantity       int                 `json:"quantity" validate:"required,min=1"`
	EstimatedPrice decimal.Decimal     `json:"estimated_price"`
}

// CreateOrderRequest is the payload customers submit to book a pickup.
type CreateOrderRequest struct {
	Address       types.PickupAddress `json:"address" validate:"required"`
	PreferredDate time.Time           `json:"preferred_date" validate:"required"`
	TimeSlot      enums.TimeSlot      `json:"time_slot" validate:"required"`
	Priority      enums.OrderPriority `json:"priority,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	Items         []CreateOrderItem   `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusRequest moves an assigned order through the pickup lifecycle.
type UpdateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

// ItemDTO is the transport shape of an order item.
type ItemDTO struct {
	ID             uuid.UUID           `json:"id"`
	Category       string              `json:"category"`
	Condition      enums.ItemCondition `json:"condition"`
	Quantity       int                 `json:"quantity"`
	EstimatedPrice decimal.Decimal     `json:"estimated_price"`
}

// OrderDTO is the transport shape of a pickup order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     int64               `json:"order_number"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	Status          enums.OrderStatus   `json:"status"`
	Priority        enums.OrderPriority `json:"priority"`
	Address         types.PickupAddress `json:"address"`
	PreferredDate   time.Time           `json:"preferred_date"`
	TimeSlot        enums.TimeSlot      `json:"time_slot"`
	AssignedAgentID *uuid.UUID          `json:"assigned_agent_id,omitempty"`
	AssignedAt      *time.Time          `json:"assigned_at,omitempty"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Total           decimal.Decimal     `json:"total"`
	Notes           *string             `json:"notes,omitempty"`
	Items           []ItemDTO           `json:"items"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderList is a cursor-paginated page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Filters narrows order listings. Date matches the calendar day of the
// preferred pickup date.
type Filters struct {
	Status   *enums.OrderStatus
	City     *string
	Pincode  *string
	TimeSlot *enums.TimeSlot
	Date     *time.Time
}

// FromModel converts the persisted order into its transport shape.
func FromModel(o *models.PickupOrder) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]ItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemDTO{
			ID:             item.ID,
			Category:       item.Category,
			Condition:      item.Condition,
			Quantity:       item.Quantity,
			EstimatedPrice: item.EstimatedPrice,
		})
	}
	return &OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          o.Status,
		Priority:        o.Priority,
		Address:         o.Address,
		PreferredDate:   o.PreferredDate,
		TimeSlot:        o.TimeSlot,
		AssignedAgentID: o.AssignedAgentID,
		AssignedAt:      o.AssignedAt,
		Subtotal:        o.Subtotal,
		Total:           o.Total,
		Notes:           o.Notes,
		Items:           items,
		CompletedAt:     o.CompletedAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

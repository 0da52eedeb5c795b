package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	"github.com/greencycle-tech/ewaste-backend/pkg/types"
)

// PickupOrder is a customer request to collect e-waste. AssignedAgentID is
// non-null exactly while the status implies an agent is responsible for the
// order; the assignment transaction is the only writer of that pairing.
type PickupOrder struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64               `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending';index"`
	Priority        enums.OrderPriority `gorm:"column:priority;type:text;not null;default:'medium'"`
	Address         types.PickupAddress `gorm:"embedded;embeddedPrefix:pickup_"`
	PreferredDate   time.Time           `gorm:"column:preferred_date;not null"`
	TimeSlot        enums.TimeSlot      `gorm:"column:time_slot;type:text;not null"`
	AssignedAgentID *uuid.UUID          `gorm:"column:assigned_agent_id;type:uuid;index"`
	AssignedAt      *time.Time          `gorm:"column:assigned_at"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric;not null;default:0"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric;not null;default:0"`
	Notes           *string             `gorm:"column:notes"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CompletedAt     *time.Time          `gorm:"column:completed_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

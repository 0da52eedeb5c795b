package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

// SupportTicket is a customer support thread, optionally linked to an order.
type SupportTicket struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TicketNumber int64                `gorm:"column:ticket_number;not null;uniqueIndex"`
	CustomerID   uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID      *uuid.UUID           `gorm:"column:order_id;type:uuid"`
	Category     string               `gorm:"column:category;not null"`
	Priority     enums.TicketPriority `gorm:"column:priority;type:text;not null;default:'medium'"`
	Status       enums.TicketStatus   `gorm:"column:status;type:text;not null;default:'open';index"`
	Subject      string               `gorm:"column:subject;not null"`
	Messages     []TicketMessage      `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
	ResolvedAt   *time.Time           `gorm:"column:resolved_at"`
	ClosedAt     *time.Time           `gorm:"column:closed_at"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TicketMessage is one entry in a support ticket thread.
type TicketMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TicketID  uuid.UUID `gorm:"column:ticket_id;type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"column:author_id;type:uuid;not null"`
	Body      string    `gorm:"column:body;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

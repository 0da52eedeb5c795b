package tickets

import (
	"time"

	"github.com/google/uuid"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

// CreateTicketRequest opens a new support thread. Body becomes the first
// message.
type CreateTicketRequest struct {
	Category string               `json:"category" validate:"required"`
	Priority enums.TicketPriority `json:"priority,omitempty"`
	Subject  string               `json:"subject" validate:"required,max=200"`
	Body     string               `json:"body" validate:"required"`
	OrderID  *uuid.UUID           `json:"order_id,omitempty"`
}

// AddMessageRequest appends one entry to a ticket thread.
type AddMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// UpdateStatusRequest moves a ticket through its state machine.
type UpdateStatusRequest struct {
	Status enums.TicketStatus `json:"status" validate:"required"`
}

// MessageDTO is the transport shape of a thread entry.
type MessageDTO struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketDTO is the transport shape of a support ticket.
type TicketDTO struct {
	ID           uuid.UUID            `json:"id"`
	TicketNumber int64                `json:"ticket_number"`
	CustomerID   uuid.UUID            `json:"customer_id"`
	OrderID      *uuid.UUID           `json:"order_id,omitempty"`
	Category     string               `json:"category"`
	Priority     enums.TicketPriority `json:"priority"`
	Status       enums.TicketStatus   `json:"status"`
	Subject      string               `json:"subject"`
	Messages     []MessageDTO         `json:"messages,omitempty"`
	ResolvedAt   *time.Time           `json:"resolved_at,omitempty"`
	ClosedAt     *time.Time           `json:"closed_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// TicketList is a cursor-paginated page of tickets.
type TicketList struct {
	Tickets    []TicketDTO `json:"tickets"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// Filters narrows ticket listings.
type Filters struct {
	Status *enums.TicketStatus
}

// FromModel converts the persisted ticket into its transport shape.
func FromModel(t *models.SupportTicket) *TicketDTO {
	if t == nil {
		return nil
	}
	messages := make([]MessageDTO, 0, len(t.Messages))
	for _, m := range t.Messages {
		messages = append(messages, MessageDTO{
			ID:        m.ID,
			AuthorID:  m.AuthorID,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		})
	}
	return &TicketDTO{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		CustomerID:   t.CustomerID,
		OrderID:      t.OrderID,
		Category:     t.Category,
		Priority:     t.Priority,
		Status:       t.Status,
		Subject:      t.Subject,
		Messages:     messages,
		ResolvedAt:   t.ResolvedAt,
		ClosedAt:     t.ClosedAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

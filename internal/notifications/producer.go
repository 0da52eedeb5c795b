package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

// Producer writes in-app notifications for domain events. Inserts are best
// effort; callers treat a returned error as a logging concern, never as a
// failure of the operation that produced the event.
type Producer struct {
	repo Repository
	log  *logger.Logger
}

// NewProducer wires a notification producer.
func NewProducer(repo Repository, log *logger.Logger) (*Producer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Producer{repo: repo, log: log}, nil
}

// NotifyAssignment tells an agent a pickup order landed on their queue.
func (p *Producer) NotifyAssignment(ctx context.Context, agentID uuid.UUID, order *models.PickupOrder, mode enums.AssignmentMode) error {
	if order == nil {
		return fmt.Errorf("order required")
	}

	kind := enums.NotificationOrderAssigned
	title := fmt.Sprintf("Pickup #%d assigned to you", order.OrderNumber)
	if mode == enums.AssignmentModeReassign {
		kind = enums.NotificationOrderReassigned
		title = fmt.Sprintf("Pickup #%d reassigned to you", order.OrderNumber)
	}

	orderID := order.ID
	notification := &models.Notification{
		UserID:  agentID,
		Kind:    kind,
		Title:   title,
		Body:    fmt.Sprintf("%s, %s. Preferred slot: %s on %s.", order.Address.City, order.Address.Pincode, order.TimeSlot, order.PreferredDate.Format("2006-01-02")),
		OrderID: &orderID,
	}
	if err := p.repo.Create(ctx, notification); err != nil {
		p.log.Error(ctx, "write assignment notification", err)
		return err
	}
	return nil
}

// NotifyTicketReply tells a ticket participant about a new staff message.
func (p *Producer) NotifyTicketReply(ctx context.Context, userID uuid.UUID, ticket *models.SupportTicket) error {
	if ticket == nil {
		return fmt.Errorf("ticket required")
	}

	notification := &models.Notification{
		UserID:  userID,
		Kind:    enums.NotificationTicketReply,
		Title:   fmt.Sprintf("New reply on ticket #%d", ticket.TicketNumber),
		Body:    ticket.Subject,
		OrderID: ticket.OrderID,
	}
	if err := p.repo.Create(ctx, notification); err != nil {
		p.log.Error(ctx, "write ticket reply notification", err)
		return err
	}
	return nil
}

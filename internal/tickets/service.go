package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
	"github.com/greencycle-tech/ewaste-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReplyNotifier tells a ticket participant about a new message. Best effort.
type ReplyNotifier interface {
	NotifyTicketReply(ctx context.Context, userID uuid.UUID, ticket *models.SupportTicket) error
}

// Actor identifies who is performing a ticket operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service defines the support ticket operations.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, req CreateTicketRequest) (*TicketDTO, error)
	Get(ctx context.Context, actor Actor, ticketID uuid.UUID) (*TicketDTO, error)
	List(ctx context.Context, actor Actor, params pagination.Params, filters Filters) (*TicketList, error)
	AddMessage(ctx context.Context, actor Actor, ticketID uuid.UUID, req AddMessageRequest) (*TicketDTO, error)
	UpdateStatus(ctx context.Context, actor Actor, ticketID uuid.UUID, req UpdateStatusRequest) (*TicketDTO, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier ReplyNotifier
}

// NewService builds a tickets service. The notifier is optional.
func NewService(repo Repository, tx txRunner, notifier ReplyNotifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier}, nil
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, req CreateTicketRequest) (*TicketDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and body are required")
	}
	priority := req.Priority
	if priority == "" {
		priority = enums.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}

	ticket := &models.SupportTicket{
		CustomerID: customerID,
		OrderID:    req.OrderID,
		Category:   strings.TrimSpace(req.Category),
		Priority:   priority,
		Status:     enums.TicketStatusOpen,
		Subject:    strings.TrimSpace(req.Subject),
		Messages: []models.TicketMessage{
			{AuthorID: customerID, Body: req.Body},
		},
	}
	created, err := s.repo.Create(ctx, ticket)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create support ticket")
	}
	return FromModel(created), nil
}

func (s *service) Get(ctx context.Context, actor Actor, ticketID uuid.UUID) (*TicketDTO, error) {
	ticket, err := s.loadTicket(ctx, s.repo, ticketID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, ticket); err != nil {
		return nil, err
	}
	return FromModel(ticket), nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params, filters Filters) (*TicketList, error) {
	var customerID *uuid.UUID
	if !isStaff(actor.Role) {
		customerID = &actor.UserID
	}
	list, err := s.repo.List(ctx, customerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list support tickets")
	}
	return list, nil
}

func (s *service) AddMessage(ctx context.Context, actor Actor, ticketID uuid.UUID, req AddMessageRequest) (*TicketDTO, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	var updated *models.SupportTicket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket, err := s.loadTicket(ctx, repo, ticketID)
		if err != nil {
			return err
		}
		if err := authorize(actor, ticket); err != nil {
			return err
		}
		if ticket.Status == enums.TicketStatusClosed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
		}

		message := &models.TicketMessage{
			TicketID: ticket.ID,
			AuthorID: actor.UserID,
			Body:     req.Body,
		}
		if err := repo.AppendMessage(ctx, message); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ticket message")
		}

		// A staff reply puts the ball in the customer's court and vice versa.
		next := nextStatusAfterReply(actor, ticket)
		if next != ticket.Status {
			if err := repo.UpdateStatus(ctx, ticket.ID, map[string]any{"status": next}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket status")
			}
			ticket.Status = next
		}
		ticket.Messages = append(ticket.Messages, *message)
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyReply(ctx, actor, updated)
	return FromModel(updated), nil
}

func (s *service) UpdateStatus(ctx context.Context, actor Actor, ticketID uuid.UUID, req UpdateStatusRequest) (*TicketDTO, error) {
	if !isStaff(actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can change ticket status")
	}
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket status")
	}

	var updated *models.SupportTicket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket, err := s.loadTicket(ctx, repo, ticketID)
		if err != nil {
			return err
		}
		if !ticket.Status.CanTransitionTo(req.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket status transition not allowed").
				WithDetails(fmt.Sprintf("%s -> %s", ticket.Status, req.Status))
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": req.Status}
		switch req.Status {
		case enums.TicketStatusResolved:
			updates["resolved_at"] = now
			ticket.ResolvedAt = &now
		case enums.TicketStatusClosed:
			updates["closed_at"] = now
			ticket.ClosedAt = &now
		case enums.TicketStatusOpen:
			// Reopening clears the terminal stamps.
			updates["resolved_at"] = nil
			updates["closed_at"] = nil
			ticket.ResolvedAt = nil
			ticket.ClosedAt = nil
		}
		if err := repo.UpdateStatus(ctx, ticket.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket status")
		}
		ticket.Status = req.Status
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) loadTicket(ctx context.Context, repo Repository, ticketID uuid.UUID) (*models.SupportTicket, error) {
	if ticketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}
	ticket, err := repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return ticket, nil
}

func (s *service) notifyReply(ctx context.Context, actor Actor, ticket *models.SupportTicket) {
	if s.notifier == nil || ticket == nil {
		return
	}
	// Customers are told about staff replies; the customer's own messages
	// need no notice.
	if actor.UserID == ticket.CustomerID {
		return
	}
	_ = s.notifier.NotifyTicketReply(ctx, ticket.CustomerID, ticket)
}

func nextStatusAfterReply(actor Actor, ticket *models.SupportTicket) enums.TicketStatus {
	if isStaff(actor.Role) {
		if ticket.Status.CanTransitionTo(enums.TicketStatusWaitingCustomer) {
			return enums.TicketStatusWaitingCustomer
		}
		return ticket.Status
	}
	if ticket.Status == enums.TicketStatusWaitingCustomer {
		return enums.TicketStatusInProgress
	}
	return ticket.Status
}

func authorize(actor Actor, ticket *models.SupportTicket) error {
	if isStaff(actor.Role) {
		return nil
	}
	if ticket.CustomerID == actor.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "ticket not accessible")
}

func isStaff(role enums.UserRole) bool {
	return role == enums.UserRoleAdmin || role == enums.UserRoleManager
}

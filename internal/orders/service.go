package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
	"github.com/greencycle-tech/ewaste-backend/pkg/pagination"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AgentReleaser returns an agent's workload slot when an order leaves the
// active set.
type AgentReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) error
}

// Actor identifies who is performing an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service defines order lifecycle operations beyond repository reads.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListForAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListUnassigned(ctx context.Context, params pagination.Params, filters Filters) (*OrderList, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, agentID uuid.UUID, orderID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	releaser AgentReleaser
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, releaser AgentReleaser) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if releaser == nil {
		return nil, fmt.Errorf("agent releaser required")
	}
	return &service{repo: repo, tx: tx, releaser: releaser}, nil
}

// agentProgression is the only path an assigned order may take forward.
var agentProgression = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusAssigned:   enums.OrderStatusInTransit,
	enums.OrderStatusInTransit:  enums.OrderStatusPickedUp,
	enums.OrderStatusPickedUp:   enums.OrderStatusProcessing,
	enums.OrderStatusProcessing: enums.OrderStatusCompleted,
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !req.TimeSlot.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid time slot")
	}
	if strings.TrimSpace(req.Address.City) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup city is required")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	priority := req.Priority
	if priority == "" {
		priority = enums.OrderPriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if !item.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item condition")
		}
		lineTotal := item.EstimatedPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			Category:       strings.TrimSpace(item.Category),
			Condition:      item.Condition,
			Quantity:       item.Quantity,
			EstimatedPrice: item.EstimatedPrice,
		})
	}

	order := &models.PickupOrder{
		CustomerID:    customerID,
		Status:        enums.OrderStatusPending,
		Priority:      priority,
		Address:       req.Address,
		PreferredDate: req.PreferredDate,
		TimeSlot:      req.TimeSlot,
		Subtotal:      subtotal,
		Total:         subtotal,
		Notes:         req.Notes,
		Items:         items,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pickup order")
	}
	return FromModel(created), nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	list, err := s.repo.ListByCustomer(ctx, customerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return list, nil
}

func (s *service) ListForAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	list, err := s.repo.ListByAgent(ctx, agentID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agent orders")
	}
	return list, nil
}

func (s *service) ListUnassigned(ctx context.Context, params pagination.Params, filters Filters) (*OrderList, error) {
	list, err := s.repo.ListUnassigned(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unassigned orders")
	}
	return list, nil
}

func (s *service) Confirm(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	var confirmed *models.PickupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be confirmed")
		}
		applied, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusConfirmed, nil, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed while confirming")
		}
		order.Status = enums.OrderStatusConfirmed
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(confirmed), nil
}

func (s *service) UpdateStatus(ctx context.Context, agentID uuid.UUID, orderID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.PickupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.AssignedAgentID == nil || *order.AssignedAgentID != agentID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this agent")
		}

		next, ok := agentProgression[order.Status]
		if !ok || next != req.Status {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed")
		}

		updates := map[string]any{}
		if next == enums.OrderStatusCompleted {
			now := time.Now().UTC()
			updates["completed_at"] = now
			order.CompletedAt = &now
		}
		applied, err := repo.UpdateStatus(ctx, order.ID, order.Status, next, order.AssignedAgentID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed while updating status")
		}
		if next == enums.OrderStatusCompleted {
			if err := s.releaser.Release(ctx, tx, agentID); err != nil {
				return err
			}
		}
		order.Status = next
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	var cancelled *models.PickupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if actor.Role == enums.UserRoleCustomer && order.CustomerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already finished")
		}
		// Once the load is physically collected the order can no longer be
		// cancelled, only completed.
		if order.Status == enums.OrderStatusPickedUp || order.Status == enums.OrderStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already picked up")
		}

		now := time.Now().UTC()
		updates := map[string]any{"cancelled_at": now}
		releasedAgent := order.AssignedAgentID
		if releasedAgent != nil {
			updates["assigned_agent_id"] = nil
			updates["assigned_at"] = nil
		}
		applied, err := repo.UpdateStatus(ctx, order.ID, order.Status, enums.OrderStatusCancelled, releasedAgent, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed while cancelling")
		}
		if releasedAgent != nil {
			if err := s.releaser.Release(ctx, tx, *releasedAgent); err != nil {
				return err
			}
		}
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		order.AssignedAgentID = nil
		order.AssignedAt = nil
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(cancelled), nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func authorizeRead(actor Actor, order *models.PickupOrder) error {
	switch actor.Role {
	case enums.UserRoleAdmin, enums.UserRoleManager:
		return nil
	case enums.UserRoleCustomer:
		if order.CustomerID == actor.UserID {
			return nil
		}
	case enums.UserRolePickupBoy:
		if order.AssignedAgentID != nil && *order.AssignedAgentID == actor.UserID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
}

type agentReleaserImpl struct{}

// NewAgentReleaser exposes the default workload release implementation.
func NewAgentReleaser() AgentReleaser {
	return agentReleaserImpl{}
}

func (agentReleaserImpl) Release(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for workload release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE agent_profiles
		SET active_orders = active_orders - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND active_orders > 0
	`, agentID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release agent workload")
	}
	return nil
}

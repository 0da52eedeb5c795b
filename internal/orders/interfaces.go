package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	"github.com/greencycle-tech/ewaste-backend/pkg/pagination"
)

// Repository defines persistence operations for pickup orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PickupOrder) (*models.PickupOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PickupOrder, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	ListUnassigned(ctx context.Context, params pagination.Params, filters Filters) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, expectedAgent *uuid.UUID, updates map[string]any) (bool, error)
}

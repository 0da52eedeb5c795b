package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	"github.com/greencycle-tech/ewaste-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.PickupOrder) (*models.PickupOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PickupOrder, error) {
	var order models.PickupOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	qb := r.db.WithContext(ctx).Model(&models.PickupOrder{}).
		Where("customer_id = ?", customerID)
	return r.list(ctx, qb, params, filters)
}

func (r *repository) ListByAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	qb := r.db.WithContext(ctx).Model(&models.PickupOrder{}).
		Where("assigned_agent_id = ?", agentID)
	return r.list(ctx, qb, params, filters)
}

func (r *repository) ListUnassigned(ctx context.Context, params pagination.Params, filters Filters) (*OrderList, error) {
	qb := r.db.WithContext(ctx).Model(&models.PickupOrder{}).
		Where("assigned_agent_id IS NULL").
		Where("status IN ?", enums.AssignableOrderStatuses)
	return r.list(ctx, qb, params, filters)
}

func (r *repository) list(ctx context.Context, qb *gorm.DB, params pagination.Params, filters Filters) (*OrderList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	if filters.City != nil {
		qb = qb.Where("lower(pickup_city) = ?", strings.ToLower(strings.TrimSpace(*filters.City)))
	}
	if filters.Pincode != nil {
		qb = qb.Where("pickup_pincode = ?", strings.TrimSpace(*filters.Pincode))
	}
	if filters.TimeSlot != nil {
		qb = qb.Where("time_slot = ?", *filters.TimeSlot)
	}
	if filters.Date != nil {
		dayStart := filters.Date.UTC().Truncate(24 * time.Hour)
		qb = qb.Where("preferred_date >= ? AND preferred_date < ?", dayStart, dayStart.AddDate(0, 0, 1))
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.PickupOrder
	err = qb.Preload("Items").
		Order("created_at DESC").Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return &OrderList{Orders: dtos, NextCursor: nextCursor}, nil
}

// UpdateStatus transitions an order only when it still matches the status and
// assigned agent the caller observed. A false return means another writer got
// there first.
func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, expectedAgent *uuid.UUID, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	qb := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("id = ? AND status = ?", orderID, from)
	if expectedAgent == nil {
		qb = qb.Where("assigned_agent_id IS NULL")
	} else {
		qb = qb.Where("assigned_agent_id = ?", *expectedAgent)
	}
	res := qb.Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

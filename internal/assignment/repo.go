package assignment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.PickupOrder, error) {
	var order models.PickupOrder
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindAgentProfile(ctx context.Context, userID uuid.UUID) (*models.AgentProfile, error) {
	var profile models.AgentProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) ClaimOrder(ctx context.Context, orderID, agentID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("id = ? AND assigned_agent_id IS NULL AND status IN ?", orderID, enums.AssignableOrderStatuses).
		Updates(map[string]any{
			"assigned_agent_id": agentID,
			"assigned_at":       at,
			"status":            enums.OrderStatusAssigned,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SwapOrderAgent(ctx context.Context, orderID, fromAgent, toAgent uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("id = ? AND assigned_agent_id = ? AND status = ?", orderID, fromAgent, enums.OrderStatusAssigned).
		Updates(map[string]any{
			"assigned_agent_id": toAgent,
			"assigned_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IncrementAgentLoad(ctx context.Context, agentID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE agent_profiles
		SET active_orders = active_orders + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND is_active AND active_orders < max_capacity
	`, agentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DecrementAgentLoad(ctx context.Context, agentID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE agent_profiles
		SET active_orders = active_orders - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND active_orders > 0
	`, agentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListEligibleAgents(ctx context.Context, city, pincodePrefix string) ([]models.AgentProfile, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.AgentProfile{}).
		Where("is_active").
		Where("active_orders < max_capacity")
	if city != "" {
		qb = qb.Where("lower(service_city) = ?", strings.ToLower(strings.TrimSpace(city)))
	}
	if pincodePrefix != "" {
		qb = qb.Where("service_pincode LIKE ?", pincodePrefix+"%")
	}

	var agents []models.AgentProfile
	err := qb.Order("active_orders ASC").Order("created_at ASC").
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repository) ListActiveAgents(ctx context.Context, city, pincode string) ([]models.AgentProfile, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.AgentProfile{}).
		Where("is_active")
	if city != "" {
		qb = qb.Where("lower(service_city) = ?", strings.ToLower(strings.TrimSpace(city)))
	}
	if pincode = strings.TrimSpace(pincode); pincode != "" {
		qb = qb.Where("service_pincode = ?", pincode)
	}

	var agents []models.AgentProfile
	err := qb.Order("active_orders ASC").Order("created_at ASC").
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repository) ListOldestUnassigned(ctx context.Context, city, pincode string, limit int) ([]models.PickupOrder, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("assigned_agent_id IS NULL").
		Where("status IN ?", enums.AssignableOrderStatuses)
	if city != "" {
		qb = qb.Where("lower(pickup_city) = ?", strings.ToLower(strings.TrimSpace(city)))
	}
	if pincode != "" {
		qb = qb.Where("pickup_pincode = ?", pincode)
	}

	var orders []models.PickupOrder
	err := qb.Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) AppendEvent(ctx context.Context, event *models.AssignmentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) AggregateEvents(ctx context.Context, since time.Time) ([]statsRow, error) {
	var rows []statsRow
	err := r.db.WithContext(ctx).
		Model(&models.AssignmentEvent{}).
		Select("mode, result, COUNT(*) AS count, COALESCE(AVG(latency_ms), 0) AS avg_latency_ms").
		Where("created_at >= ?", since).
		Group("mode").Group("result").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) AgentEventStats(ctx context.Context, agentID uuid.UUID, since time.Time) (*agentStatsRow, error) {
	var row agentStatsRow
	err := r.db.WithContext(ctx).
		Model(&models.AssignmentEvent{}).
		Select("COUNT(*) AS assignments_total, COALESCE(AVG(latency_ms), 0) AS avg_latency_ms").
		Where("agent_id = ? AND result = ? AND created_at >= ?", agentID, enums.AssignmentResultSuccess, since).
		Scan(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &agentStatsRow{}, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) CountCompletedOrders(ctx context.Context, agentID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("assigned_agent_id = ? AND status = ? AND completed_at >= ?", agentID, enums.OrderStatusCompleted, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountPendingAssignments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("assigned_agent_id IS NULL").
		Where("status IN ?", enums.AssignableOrderStatuses).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CompletionStats(ctx context.Context, since time.Time) (int64, decimal.Decimal, error) {
	var row struct {
		Count   int64
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS revenue").
		Where("status = ? AND completed_at >= ?", enums.OrderStatusCompleted, since).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Revenue, nil
}

func (r *repository) SuccessCountsByAgent(ctx context.Context, since time.Time) (map[uuid.UUID]int64, error) {
	var rows []struct {
		AgentID uuid.UUID
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.AssignmentEvent{}).
		Select("agent_id, COUNT(*) AS count").
		Where("result = ? AND created_at >= ?", enums.AssignmentResultSuccess, since).
		Group("agent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.AgentID] = row.Count
	}
	return out, nil
}

func (r *repository) CompletedCountsByAgent(ctx context.Context, since time.Time) (map[uuid.UUID]int64, error) {
	var rows []struct {
		AgentID uuid.UUID `gorm:"column:assigned_agent_id"`
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Select("assigned_agent_id, COUNT(*) AS count").
		Where("status = ? AND completed_at >= ? AND assigned_agent_id IS NOT NULL", enums.OrderStatusCompleted, since).
		Group("assigned_agent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.AgentID] = row.Count
	}
	return out, nil
}

func (r *repository) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AssignmentEvent{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

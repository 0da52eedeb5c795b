package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	"github.com/greencycle-tech/ewaste-backend/pkg/types"
)

func setupAssignmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	agentProfiles := `
CREATE TABLE IF NOT EXISTS agent_profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  service_city TEXT NOT NULL,
  service_pincode TEXT NOT NULL,
  vehicle_number TEXT,
  max_capacity INTEGER NOT NULL DEFAULT 8,
  active_orders INTEGER NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at DATETIME,
  updated_at DATETIME
);`
	pickupOrders := `
CREATE TABLE IF NOT EXISTS pickup_orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  priority TEXT NOT NULL DEFAULT 'medium',
  pickup_street TEXT NOT NULL,
  pickup_city TEXT NOT NULL,
  pickup_pincode TEXT NOT NULL,
  pickup_landmark TEXT,
  preferred_date DATETIME NOT NULL,
  time_slot TEXT NOT NULL,
  assigned_agent_id TEXT,
  assigned_at DATETIME,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  notes TEXT,
  completed_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	assignmentEvents := `
CREATE TABLE IF NOT EXISTS assignment_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  agent_id TEXT NOT NULL,
  assigned_by_id TEXT,
  mode TEXT NOT NULL,
  previous_status TEXT NOT NULL,
  result TEXT NOT NULL,
  fail_reason TEXT,
  latency_ms INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(agentProfiles).Error)
	require.NoError(t, db.Exec(pickupOrders).Error)
	require.NoError(t, db.Exec(assignmentEvents).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM assignment_events")
		db.Exec("DELETE FROM pickup_orders")
		db.Exec("DELETE FROM agent_profiles")
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
	})

	return db
}

var assignmentOrderSeq int64 = 200000

func seedUnassignedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, city, pincode string, createdAt time.Time) *models.PickupOrder {
	t.Helper()
	assignmentOrderSeq++
	order := &models.PickupOrder{
		ID:          uuid.New(),
		OrderNumber: assignmentOrderSeq,
		CustomerID:  uuid.New(),
		Status:      status,
		Priority:    enums.OrderPriorityMedium,
		Address: types.PickupAddress{
			Street:  "44 FC Road",
			City:    city,
			Pincode: pincode,
		},
		PreferredDate: createdAt.Add(48 * time.Hour),
		TimeSlot:      enums.TimeSlotMorning,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedAgent(t *testing.T, db *gorm.DB, city, pincode string, active, max int, isActive bool, createdAt time.Time) *models.AgentProfile {
	t.Helper()
	profile := &models.AgentProfile{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ServiceCity:    city,
		ServicePincode: pincode,
		MaxCapacity:    max,
		ActiveOrders:   active,
		IsActive:       isActive,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func TestRepositoryClaimOrderIsSingleWinner(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedUnassignedOrder(t, db, enums.OrderStatusPending, "Pune", "411001", time.Now().UTC())
	first := uuid.New()
	second := uuid.New()

	claimed, err := repo.ClaimOrder(ctx, order.ID, first, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, claimed)

	// The guard no longer matches once an agent holds the order.
	claimed, err = repo.ClaimOrder(ctx, order.ID, second, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, claimed)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.AssignedAgentID)
	assert.Equal(t, first, *found.AssignedAgentID)
	assert.Equal(t, enums.OrderStatusAssigned, found.Status)
	require.NotNil(t, found.AssignedAt)
}

func TestRepositoryClaimOrderRejectsNonAssignableStates(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cancelled := seedUnassignedOrder(t, db, enums.OrderStatusCancelled, "Pune", "411001", time.Now().UTC())
	claimed, err := repo.ClaimOrder(ctx, cancelled.ID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, claimed)

	confirmed := seedUnassignedOrder(t, db, enums.OrderStatusConfirmed, "Pune", "411001", time.Now().UTC())
	claimed, err = repo.ClaimOrder(ctx, confirmed.ID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestRepositoryAgentLoadGuards(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	agent := seedAgent(t, db, "Pune", "411001", 1, 2, true, time.Now().UTC())

	taken, err := repo.IncrementAgentLoad(ctx, agent.UserID)
	require.NoError(t, err)
	assert.True(t, taken)

	// At capacity now; the increment guard must refuse.
	taken, err = repo.IncrementAgentLoad(ctx, agent.UserID)
	require.NoError(t, err)
	assert.False(t, taken)

	profile, err := repo.FindAgentProfile(ctx, agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.ActiveOrders)

	released, err := repo.DecrementAgentLoad(ctx, agent.UserID)
	require.NoError(t, err)
	assert.True(t, released)
	released, err = repo.DecrementAgentLoad(ctx, agent.UserID)
	require.NoError(t, err)
	assert.True(t, released)

	// The counter never goes negative.
	released, err = repo.DecrementAgentLoad(ctx, agent.UserID)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestRepositoryIncrementRefusesInactiveAgent(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	agent := seedAgent(t, db, "Pune", "411001", 0, 8, false, time.Now().UTC())
	taken, err := repo.IncrementAgentLoad(ctx, agent.UserID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRepositoryListEligibleAgents(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	lightest := seedAgent(t, db, "Pune", "411001", 1, 8, true, base.Add(time.Minute))
	tieBreak := seedAgent(t, db, "Pune", "411002", 2, 8, true, base)
	heavier := seedAgent(t, db, "PUNE", "411003", 2, 8, true, base.Add(2*time.Minute))
	seedAgent(t, db, "Pune", "411004", 8, 8, true, base)  // full
	seedAgent(t, db, "Pune", "411005", 0, 8, false, base) // inactive
	seedAgent(t, db, "Mumbai", "400001", 0, 8, true, base)

	agents, err := repo.ListEligibleAgents(ctx, "pune", "")
	require.NoError(t, err)
	require.Len(t, agents, 3)
	assert.Equal(t, lightest.UserID, agents[0].UserID)
	assert.Equal(t, tieBreak.UserID, agents[1].UserID)
	assert.Equal(t, heavier.UserID, agents[2].UserID)

	narrowed, err := repo.ListEligibleAgents(ctx, "Pune", "41100")
	require.NoError(t, err)
	assert.Len(t, narrowed, 3)

	none, err := repo.ListEligibleAgents(ctx, "Pune", "500")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepositoryListActiveAgentsPincodeFilter(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	match := seedAgent(t, db, "Pune", "411001", 1, 8, true, base)
	seedAgent(t, db, "Pune", "411002", 0, 8, true, base)

	agents, err := repo.ListActiveAgents(ctx, "pune", "411001")
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, match.UserID, agents[0].UserID)

	all, err := repo.ListActiveAgents(ctx, "pune", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryListOldestUnassigned(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	oldest := seedUnassignedOrder(t, db, enums.OrderStatusPending, "Pune", "411001", base)
	middle := seedUnassignedOrder(t, db, enums.OrderStatusConfirmed, "Pune", "411002", base.Add(time.Minute))
	seedUnassignedOrder(t, db, enums.OrderStatusPending, "Mumbai", "400001", base.Add(2*time.Minute))
	seedUnassignedOrder(t, db, enums.OrderStatusCancelled, "Pune", "411001", base.Add(3*time.Minute))

	orders, err := repo.ListOldestUnassigned(ctx, "pune", "", 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, oldest.ID, orders[0].ID)
	assert.Equal(t, middle.ID, orders[1].ID)

	limited, err := repo.ListOldestUnassigned(ctx, "", "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, oldest.ID, limited[0].ID)
}

func TestRepositoryAggregateEvents(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	agentID := uuid.New()
	orderID := uuid.New()
	reason := ReasonAgentAtCapacity
	now := time.Now().UTC()
	events := []*models.AssignmentEvent{
		{ID: uuid.New(), OrderID: orderID, AgentID: agentID, Mode: enums.AssignmentModeManual, PreviousStatus: enums.OrderStatusPending, Result: enums.AssignmentResultSuccess, LatencyMS: 10, CreatedAt: now},
		{ID: uuid.New(), OrderID: orderID, AgentID: agentID, Mode: enums.AssignmentModeManual, PreviousStatus: enums.OrderStatusPending, Result: enums.AssignmentResultSuccess, LatencyMS: 30, CreatedAt: now},
		{ID: uuid.New(), OrderID: orderID, AgentID: agentID, Mode: enums.AssignmentModeAuto, PreviousStatus: enums.OrderStatusConfirmed, Result: enums.AssignmentResultFailure, FailReason: &reason, LatencyMS: 5, CreatedAt: now},
		{ID: uuid.New(), OrderID: orderID, AgentID: agentID, Mode: enums.AssignmentModeAuto, PreviousStatus: enums.OrderStatusConfirmed, Result: enums.AssignmentResultSuccess, LatencyMS: 20, CreatedAt: now.Add(-48 * time.Hour)},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendEvent(ctx, e))
	}

	rows, err := repo.AggregateEvents(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byKey := map[string]statsRow{}
	for _, row := range rows {
		byKey[row.Mode.String()+"/"+row.Result.String()] = row
	}
	success := byKey["manual/success"]
	assert.Equal(t, int64(2), success.Count)
	assert.InDelta(t, 20.0, success.AvgLatencyMS, 0.01)
	failure := byKey["auto/failure"]
	assert.Equal(t, int64(1), failure.Count)
}

func TestRepositoryAgentEventStatsAndRetention(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	agentID := uuid.New()
	now := time.Now().UTC()
	recent := &models.AssignmentEvent{ID: uuid.New(), OrderID: uuid.New(), AgentID: agentID, Mode: enums.AssignmentModeManual, PreviousStatus: enums.OrderStatusPending, Result: enums.AssignmentResultSuccess, LatencyMS: 12, CreatedAt: now}
	stale := &models.AssignmentEvent{ID: uuid.New(), OrderID: uuid.New(), AgentID: agentID, Mode: enums.AssignmentModeManual, PreviousStatus: enums.OrderStatusPending, Result: enums.AssignmentResultSuccess, LatencyMS: 40, CreatedAt: now.Add(-72 * time.Hour)}
	require.NoError(t, repo.AppendEvent(ctx, recent))
	require.NoError(t, repo.AppendEvent(ctx, stale))

	stats, err := repo.AgentEventStats(ctx, agentID, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AssignmentsTotal)
	assert.InDelta(t, 12.0, stats.AvgLatencyMS, 0.01)

	deleted, err := repo.DeleteEventsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stats, err = repo.AgentEventStats(ctx, agentID, now.Add(-168*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AssignmentsTotal)
}

func TestRepositoryStatisticsAggregates(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	seedUnassignedOrder(t, db, enums.OrderStatusPending, "Pune", "411001", now)
	seedUnassignedOrder(t, db, enums.OrderStatusConfirmed, "Pune", "411001", now)
	seedUnassignedOrder(t, db, enums.OrderStatusCancelled, "Pune", "411001", now)

	agentID := uuid.New()
	completed := seedUnassignedOrder(t, db, enums.OrderStatusPending, "Pune", "411001", now.Add(-2*time.Hour))
	require.NoError(t, db.Model(&models.PickupOrder{}).
		Where("id = ?", completed.ID).
		Updates(map[string]any{
			"status":            enums.OrderStatusCompleted,
			"assigned_agent_id": agentID,
			"completed_at":      now.Add(-time.Hour),
			"total":             decimal.NewFromInt(420),
		}).Error)

	pending, err := repo.CountPendingAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	count, revenue, err := repo.CompletionStats(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, revenue.Equal(decimal.NewFromInt(420)))

	byAgent, err := repo.CompletedCountsByAgent(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), byAgent[agentID])

	require.NoError(t, repo.AppendEvent(ctx, &models.AssignmentEvent{
		ID: uuid.New(), OrderID: completed.ID, AgentID: agentID,
		Mode: enums.AssignmentModeAuto, PreviousStatus: enums.OrderStatusPending,
		Result: enums.AssignmentResultSuccess, LatencyMS: 7, CreatedAt: now,
	}))
	successes, err := repo.SuccessCountsByAgent(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), successes[agentID])
}

func TestRepositorySwapOrderAgent(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedUnassignedOrder(t, db, enums.OrderStatusPending, "Pune", "411001", time.Now().UTC())
	oldAgent := uuid.New()
	newAgent := uuid.New()

	claimed, err := repo.ClaimOrder(ctx, order.ID, oldAgent, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, claimed)

	// Swap only succeeds while the expected agent still holds the order.
	swapped, err := repo.SwapOrderAgent(ctx, order.ID, newAgent, oldAgent, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = repo.SwapOrderAgent(ctx, order.ID, oldAgent, newAgent, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, swapped)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.AssignedAgentID)
	assert.Equal(t, newAgent, *found.AssignedAgentID)
}

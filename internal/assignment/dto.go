package assignment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

// AssignRequest binds one order to one agent.
type AssignRequest struct {
	PickupBoyID uuid.UUID `json:"pickup_boy_id" validate:"required"`
}

// ReassignRequest moves an assigned order to a different agent.
type ReassignRequest struct {
	NewPickupBoyID uuid.UUID `json:"new_pickup_boy_id" validate:"required"`
	Reason         *string   `json:"reason,omitempty"`
}

// BulkAssignItem is one order/agent pair in a bulk request.
type BulkAssignItem struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	PickupBoyID uuid.UUID `json:"pickup_boy_id" validate:"required"`
}

// BulkAssignRequest carries up to a batch of explicit pairings.
type BulkAssignRequest struct {
	Assignments []BulkAssignItem `json:"assignments" validate:"required,min=1,max=100,dive"`
}

// BulkFailure explains why one pairing in a batch was rejected.
type BulkFailure struct {
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// BulkAssignResult summarizes a batch run. The batch always runs to the end;
// one failed pairing never aborts the rest.
type BulkAssignResult struct {
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []BulkFailure `json:"failures,omitempty"`
}

// AutoAssignRequest bounds an automatic assignment run.
type AutoAssignRequest struct {
	City           string     `json:"city,omitempty"`
	Pincode        string     `json:"pincode,omitempty"`
	MaxAssignments int        `json:"max_assignments,omitempty" validate:"omitempty,min=1,max=200"`
	TriggeredBy    *uuid.UUID `json:"-"`
}

// AutoAssignResult reports what an automatic run accomplished, including the
// order/agent pair for every successful binding.
type AutoAssignResult struct {
	Examined    int             `json:"examined"`
	Assigned    int             `json:"assigned"`
	Skipped     int             `json:"skipped"`
	Assignments []AssignmentDTO `json:"assignments"`
	Failures    []BulkFailure   `json:"failures,omitempty"`
}

// AssignmentDTO is returned after a successful assignment.
type AssignmentDTO struct {
	OrderID     uuid.UUID            `json:"order_id"`
	AgentID     uuid.UUID            `json:"agent_id"`
	Mode        enums.AssignmentMode `json:"mode"`
	AssignedAt  time.Time            `json:"assigned_at"`
	OrderStatus enums.OrderStatus    `json:"order_status"`
}

// AgentAvailability is one row of the availability listing.
type AgentAvailability struct {
	UserID          uuid.UUID                `json:"user_id"`
	ServiceCity     string                   `json:"service_city"`
	ActiveOrders    int                      `json:"active_orders"`
	TodayOrders     int64                    `json:"today_orders"`
	MaxCapacity     int                      `json:"max_capacity"`
	LoadRatio       float64                  `json:"load_ratio"`
	Availability    enums.AvailabilityStatus `json:"availability"`
	CanTakeNewOrder bool                     `json:"can_take_new_order"`
}

// AvailabilitySummary counts agents by pressure bucket.
type AvailabilitySummary struct {
	Available     int `json:"available"`
	Busy          int `json:"busy"`
	Overloaded    int `json:"overloaded"`
	CanTakeOrders int `json:"can_take_orders"`
}

// AvailabilityList is the full availability report for a city (or all cities).
type AvailabilityList struct {
	Agents  []AgentAvailability `json:"agents"`
	Summary AvailabilitySummary `json:"summary"`
}

// AgentPerformance aggregates an agent's assignment history.
type AgentPerformance struct {
	AgentID          uuid.UUID            `json:"agent_id"`
	Timeframe        enums.StatsTimeframe `json:"timeframe"`
	AssignmentsTotal int64                `json:"assignments_total"`
	CompletedOrders  int64                `json:"completed_orders"`
	ActiveOrders     int                  `json:"active_orders"`
	AvgLatencyMS     float64              `json:"avg_latency_ms"`
}

// Statistics is fully derived from orders and the assignment event log;
// nothing here is stored independently.
type Statistics struct {
	Timeframe               enums.StatsTimeframe           `json:"timeframe"`
	Since                   time.Time                      `json:"since"`
	PendingAssignments      int64                          `json:"pending_assignments"`
	Assigned                int64                          `json:"assigned"`
	AutoAssigned            int64                          `json:"auto_assigned"`
	FailedAttempts          int64                          `json:"failed_attempts"`
	ByMode                  map[enums.AssignmentMode]int64 `json:"by_mode"`
	AverageAssignmentTimeMS float64                        `json:"average_assignment_time_ms"`
	CompletionRate          float64                        `json:"completion_rate"`
	TotalRevenue            decimal.Decimal                `json:"total_revenue"`
}

// WindowStart resolves the aggregation window's inclusive lower bound.
func WindowStart(timeframe enums.StatsTimeframe, now time.Time) time.Time {
	now = now.UTC()
	switch timeframe {
	case enums.TimeframeWeek:
		return now.AddDate(0, 0, -7)
	case enums.TimeframeMonth:
		return now.AddDate(0, -1, 0)
	default:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
}

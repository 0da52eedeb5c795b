package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

// statsRow is the raw aggregate the repository reduces the event log into.
type statsRow struct {
	Mode         enums.AssignmentMode
	Result       enums.AssignmentResult
	Count        int64
	AvgLatencyMS float64
}

// agentStatsRow aggregates one agent's event history inside a window.
type agentStatsRow struct {
	AssignmentsTotal int64
	AvgLatencyMS     float64
}

// Repository is the data surface of the assignment engine. The Claim/Swap and
// load mutations are conditional single-statement updates: a false return
// means the guard failed, not an infrastructure error.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.PickupOrder, error)
	FindAgentProfile(ctx context.Context, userID uuid.UUID) (*models.AgentProfile, error)

	// ClaimOrder binds an unassigned, assignable order to an agent.
	ClaimOrder(ctx context.Context, orderID, agentID uuid.UUID, at time.Time) (bool, error)
	// SwapOrderAgent moves an order already held by fromAgent onto toAgent.
	SwapOrderAgent(ctx context.Context, orderID, fromAgent, toAgent uuid.UUID, at time.Time) (bool, error)
	// IncrementAgentLoad takes one workload slot if the agent is active and
	// below capacity.
	IncrementAgentLoad(ctx context.Context, agentID uuid.UUID) (bool, error)
	// DecrementAgentLoad returns one workload slot; a zero counter stays zero.
	DecrementAgentLoad(ctx context.Context, agentID uuid.UUID) (bool, error)

	ListEligibleAgents(ctx context.Context, city, pincodePrefix string) ([]models.AgentProfile, error)
	// ListActiveAgents lists active agents without a headroom filter, for
	// availability reporting.
	ListActiveAgents(ctx context.Context, city, pincode string) ([]models.AgentProfile, error)
	ListOldestUnassigned(ctx context.Context, city, pincode string, limit int) ([]models.PickupOrder, error)

	AppendEvent(ctx context.Context, event *models.AssignmentEvent) error
	AggregateEvents(ctx context.Context, since time.Time) ([]statsRow, error)
	AgentEventStats(ctx context.Context, agentID uuid.UUID, since time.Time) (*agentStatsRow, error)
	CountCompletedOrders(ctx context.Context, agentID uuid.UUID, since time.Time) (int64, error)
	// CountPendingAssignments counts orders currently waiting for an agent.
	CountPendingAssignments(ctx context.Context) (int64, error)
	// CompletionStats reduces orders completed since the bound into a count
	// and revenue sum.
	CompletionStats(ctx context.Context, since time.Time) (int64, decimal.Decimal, error)
	// SuccessCountsByAgent groups successful assignment events per agent.
	SuccessCountsByAgent(ctx context.Context, since time.Time) (map[uuid.UUID]int64, error)
	// CompletedCountsByAgent groups completed orders per assigned agent.
	CompletedCountsByAgent(ctx context.Context, since time.Time) (map[uuid.UUID]int64, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

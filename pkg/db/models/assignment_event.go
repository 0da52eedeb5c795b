package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

// AssignmentEvent is the append-only audit record written for every
// assignment attempt. Statistics are reductions over this log; no aggregate
// is stored separately.
type AssignmentEvent struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	AgentID        uuid.UUID              `gorm:"column:agent_id;type:uuid;not null;index"`
	AssignedByID   *uuid.UUID             `gorm:"column:assigned_by_id;type:uuid"` // null = automatic
	Mode           enums.AssignmentMode   `gorm:"column:mode;type:text;not null"`
	PreviousStatus enums.OrderStatus      `gorm:"column:previous_status;type:text;not null"`
	Result         enums.AssignmentResult `gorm:"column:result;type:text;not null"`
	FailReason     *string                `gorm:"column:fail_reason"`
	LatencyMS      int64                  `gorm:"column:latency_ms;not null;default:0"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime;index"`
}

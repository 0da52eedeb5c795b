package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentProfile carries the pickup-agent-specific state for a user with the
// pickup_boy role. ActiveOrders is mutated exclusively through conditional
// updates inside the assignment transaction and the release hook; it must
// never exceed MaxCapacity.
type AgentProfile struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ServiceCity    string    `gorm:"column:service_city;not null;index"`
	ServicePincode string    `gorm:"column:service_pincode;not null"`
	VehicleNumber  *string   `gorm:"column:vehicle_number"`
	MaxCapacity    int       `gorm:"column:max_capacity;not null;default:8"`
	ActiveOrders   int       `gorm:"column:active_orders;not null;default:0"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

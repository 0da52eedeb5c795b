package agents

import (
	"time"

	"github.com/google/uuid"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
)

// ProfileDTO is the transport shape of an agent profile.
type ProfileDTO struct {
	ID             uuid.UUID                `json:"id"`
	UserID         uuid.UUID                `json:"user_id"`
	ServiceCity    string                   `json:"service_city"`
	ServicePincode string                   `json:"service_pincode"`
	VehicleNumber  *string                  `json:"vehicle_number,omitempty"`
	MaxCapacity    int                      `json:"max_capacity"`
	ActiveOrders   int                      `json:"active_orders"`
	Availability   enums.AvailabilityStatus `json:"availability"`
	IsActive       bool                     `json:"is_active"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// Workload is the dashboard row describing how loaded an agent is.
type Workload struct {
	UserID       uuid.UUID                `json:"user_id"`
	Name         string                   `json:"name"`
	ServiceCity  string                   `json:"service_city"`
	ActiveOrders int                      `json:"active_orders"`
	MaxCapacity  int                      `json:"max_capacity"`
	LoadRatio    float64                  `json:"load_ratio"`
	Availability enums.AvailabilityStatus `json:"availability"`
	IsActive     bool                     `json:"is_active"`
}

// UpdateProfileRequest carries the mutable agent profile fields.
type UpdateProfileRequest struct {
	ServiceCity    *string `json:"service_city,omitempty"`
	ServicePincode *string `json:"service_pincode,omitempty"`
	VehicleNumber  *string `json:"vehicle_number,omitempty"`
	MaxCapacity    *int    `json:"max_capacity,omitempty" validate:"omitempty,min=1,max=50"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// FromModel converts the persisted profile into its transport shape.
func FromModel(p *models.AgentProfile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:             p.ID,
		UserID:         p.UserID,
		ServiceCity:    p.ServiceCity,
		ServicePincode: p.ServicePincode,
		VehicleNumber:  p.VehicleNumber,
		MaxCapacity:    p.MaxCapacity,
		ActiveOrders:   p.ActiveOrders,
		Availability:   enums.AvailabilityFor(p.ActiveOrders, p.MaxCapacity),
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
)

// Service exposes agent profile and workload operations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error)
	ListWorkloads(ctx context.Context, city string) ([]Workload, error)
}

type profileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.AgentProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, updates map[string]any) error
	ListByCity(ctx context.Context, city string) ([]models.AgentProfile, error)
	ListAll(ctx context.Context) ([]models.AgentProfile, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo  profileRepository
	users userLookup
}

// NewService constructs an agents service with the provided dependencies.
func NewService(repo profileRepository, users userLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("agents repository is required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &service{repo: repo, users: users}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent profile")
	}
	return FromModel(profile), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error) {
	updates := map[string]any{}
	if req.ServiceCity != nil {
		city := strings.TrimSpace(*req.ServiceCity)
		if city == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service city cannot be empty")
		}
		updates["service_city"] = city
	}
	if req.ServicePincode != nil {
		updates["service_pincode"] = strings.TrimSpace(*req.ServicePincode)
	}
	if req.VehicleNumber != nil {
		updates["vehicle_number"] = *req.VehicleNumber
	}
	if req.MaxCapacity != nil {
		if *req.MaxCapacity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max capacity must be positive")
		}
		updates["max_capacity"] = *req.MaxCapacity
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return s.GetProfile(ctx, userID)
	}

	// Shrinking capacity below the current active load is rejected so the
	// capacity invariant keeps holding for already-assigned orders.
	if req.MaxCapacity != nil {
		current, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent profile not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent profile")
		}
		if *req.MaxCapacity < current.ActiveOrders {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "max capacity cannot drop below active orders")
		}
	}

	if err := s.repo.UpdateProfile(ctx, userID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update agent profile")
	}
	return s.GetProfile(ctx, userID)
}

func (s *service) ListWorkloads(ctx context.Context, city string) ([]Workload, error) {
	var (
		profiles []models.AgentProfile
		err      error
	)
	if strings.TrimSpace(city) == "" {
		profiles, err = s.repo.ListAll(ctx)
	} else {
		profiles, err = s.repo.ListByCity(ctx, city)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agent profiles")
	}

	workloads := make([]Workload, 0, len(profiles))
	for _, p := range profiles {
		name := ""
		if user, err := s.users.FindByID(ctx, p.UserID); err == nil {
			name = strings.TrimSpace(user.FirstName + " " + user.LastName)
		}
		ratio := 0.0
		if p.MaxCapacity > 0 {
			ratio = float64(p.ActiveOrders) / float64(p.MaxCapacity)
		}
		workloads = append(workloads, Workload{
			UserID:       p.UserID,
			Name:         name,
			ServiceCity:  p.ServiceCity,
			ActiveOrders: p.ActiveOrders,
			MaxCapacity:  p.MaxCapacity,
			LoadRatio:    ratio,
			Availability: enums.AvailabilityFor(p.ActiveOrders, p.MaxCapacity),
			IsActive:     p.IsActive,
		})
	}
	return workloads, nil
}

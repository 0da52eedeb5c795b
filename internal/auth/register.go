package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/config"
	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
	"github.com/greencycle-tech/ewaste-backend/pkg/security"

	"github.com/greencycle-tech/ewaste-backend/internal/agents"
	"github.com/greencycle-tech/ewaste-backend/internal/users"
)

// RegisterRequest contains the payload required to onboard a new customer.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`
}

// RegisterAgentRequest onboards a pickup agent, including service-area data.
type RegisterAgentRequest struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
	Phone          *string `json:"phone,omitempty"`
	ServiceCity    string  `json:"service_city" validate:"required"`
	ServicePincode string  `json:"service_pincode" validate:"required"`
	VehicleNumber  *string `json:"vehicle_number,omitempty"`
	MaxCapacity    *int    `json:"max_capacity,omitempty" validate:"omitempty,min=1,max=50"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerAgentRepository interface {
	CreateProfile(ctx context.Context, profile *models.AgentProfile) error
}

// RegisterService handles onboarding transactions.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) error
	RegisterAgent(ctx context.Context, req RegisterAgentRequest) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner         txRunner
	UserRepoFactory  func(tx *gorm.DB) registerUserRepository
	AgentRepoFactory func(tx *gorm.DB) registerAgentRepository
	PasswordConfig   config.PasswordConfig
	AssignmentConfig config.AssignmentConfig
}

type registerService struct {
	tx            txRunner
	userRepos     func(tx *gorm.DB) registerUserRepository
	agentRepos    func(tx *gorm.DB) registerAgentRepository
	passwordCfg   config.PasswordConfig
	assignmentCfg config.AssignmentConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	if params.AgentRepoFactory == nil {
		params.AgentRepoFactory = func(tx *gorm.DB) registerAgentRepository {
			return agents.NewRepository(tx)
		}
	}
	return &registerService{
		tx:            params.TxRunner,
		userRepos:     params.UserRepoFactory,
		agentRepos:    params.AgentRepoFactory,
		passwordCfg:   params.PasswordConfig,
		assignmentCfg: params.AssignmentConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)

		if err := ensureEmailAvailable(ctx, userRepo, email); err != nil {
			return err
		}

		if _, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         enums.UserRoleCustomer,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
}

func (s *registerService) RegisterAgent(ctx context.Context, req RegisterAgentRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.ServiceCity) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "service city is required")
	}

	capacity := s.assignmentCfg.DefaultMaxCapacity
	if req.MaxCapacity != nil {
		if *req.MaxCapacity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "max capacity must be positive")
		}
		capacity = *req.MaxCapacity
	}
	if capacity <= 0 {
		capacity = 1
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		agentRepo := s.agentRepos(tx)

		if err := ensureEmailAvailable(ctx, userRepo, email); err != nil {
			return err
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         enums.UserRolePickupBoy,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		profile := &models.AgentProfile{
			UserID:         user.ID,
			ServiceCity:    strings.TrimSpace(req.ServiceCity),
			ServicePincode: strings.TrimSpace(req.ServicePincode),
			VehicleNumber:  req.VehicleNumber,
			MaxCapacity:    capacity,
			IsActive:       true,
		}
		if err := agentRepo.CreateProfile(ctx, profile); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create agent profile")
		}
		return nil
	})
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return email, nil
}

func ensureEmailAvailable(ctx context.Context, repo registerUserRepository, email string) error {
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	return nil
}

package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/config"
	pkgmodels "github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"

	"github.com/greencycle-tech/ewaste-backend/internal/users"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	data      map[string]*pkgmodels.User
	created   *pkgmodels.User
	createErr error
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{data: map[string]*pkgmodels.User{}}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

type stubAgentRepository struct {
	created *pkgmodels.AgentProfile
	err     error
}

func (s *stubAgentRepository) CreateProfile(ctx context.Context, profile *pkgmodels.AgentProfile) error {
	if s.err != nil {
		return s.err
	}
	s.created = profile
	return nil
}

type registerTestSetup struct {
	service   RegisterService
	userRepo  *stubUserRepository
	agentRepo *stubAgentRepository
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubUserRepository()
	agentRepo := &stubAgentRepository{}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		AgentRepoFactory: func(tx *gorm.DB) registerAgentRepository {
			return agentRepo
		},
		PasswordConfig:   config.PasswordConfig{},
		AssignmentConfig: config.AssignmentConfig{DefaultMaxCapacity: 8},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{
		service:   svc,
		userRepo:  userRepo,
		agentRepo: agentRepo,
	}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	setup := newRegisterTestSetup(t)

	err := setup.service.Register(context.Background(), RegisterRequest{
		FirstName: "Priya",
		LastName:  "Shah",
		Email:     "  Priya@Example.com ",
		Password:  "Secret123!",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if setup.userRepo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if setup.userRepo.created.Email != "priya@example.com" {
		t.Fatalf("expected normalized email, got %q", setup.userRepo.created.Email)
	}
	if setup.userRepo.created.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", setup.userRepo.created.Role)
	}
	if setup.userRepo.created.PasswordHash == "Secret123!" {
		t.Fatalf("password must not be stored in plaintext")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["taken@example.com"] = &pkgmodels.User{ID: uuid.New(), Email: "taken@example.com"}

	err := setup.service.Register(context.Background(), RegisterRequest{
		FirstName: "Dup",
		LastName:  "User",
		Email:     "taken@example.com",
		Password:  "Secret123!",
	})
	if err == nil {
		t.Fatalf("expected conflict error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterAgentCreatesProfile(t *testing.T) {
	setup := newRegisterTestSetup(t)

	err := setup.service.RegisterAgent(context.Background(), RegisterAgentRequest{
		FirstName:      "Arun",
		LastName:       "Verma",
		Email:          "arun@example.com",
		Password:       "Secret123!",
		ServiceCity:    "Pune",
		ServicePincode: "411001",
	})
	if err != nil {
		t.Fatalf("register agent failed: %v", err)
	}

	if setup.userRepo.created == nil || setup.userRepo.created.Role != enums.UserRolePickupBoy {
		t.Fatalf("expected pickup_boy user to be created")
	}
	if setup.agentRepo.created == nil {
		t.Fatalf("expected agent profile to be created")
	}
	if setup.agentRepo.created.UserID != setup.userRepo.created.ID {
		t.Fatalf("profile not linked to created user")
	}
	if setup.agentRepo.created.MaxCapacity != 8 {
		t.Fatalf("expected default capacity 8, got %d", setup.agentRepo.created.MaxCapacity)
	}
	if !setup.agentRepo.created.IsActive {
		t.Fatalf("new agents should start active")
	}
}

func TestRegisterAgentCustomCapacity(t *testing.T) {
	setup := newRegisterTestSetup(t)
	capacity := 3

	err := setup.service.RegisterAgent(context.Background(), RegisterAgentRequest{
		FirstName:      "Meera",
		LastName:       "Nair",
		Email:          "meera@example.com",
		Password:       "Secret123!",
		ServiceCity:    "Kochi",
		ServicePincode: "682001",
		MaxCapacity:    &capacity,
	})
	if err != nil {
		t.Fatalf("register agent failed: %v", err)
	}
	if setup.agentRepo.created.MaxCapacity != 3 {
		t.Fatalf("expected capacity 3, got %d", setup.agentRepo.created.MaxCapacity)
	}
}

func TestRegisterAgentRequiresServiceCity(t *testing.T) {
	setup := newRegisterTestSetup(t)

	err := setup.service.RegisterAgent(context.Background(), RegisterAgentRequest{
		FirstName:      "No",
		LastName:       "City",
		Email:          "nocity@example.com",
		Password:       "Secret123!",
		ServiceCity:    "   ",
		ServicePincode: "411001",
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

package agents

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
)

// Repository exposes agent profile persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an agents repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateProfile inserts a new agent profile.
func (r *Repository) CreateProfile(ctx context.Context, profile *models.AgentProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// FindByUserID loads the profile belonging to the given user.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.AgentProfile, error) {
	var profile models.AgentProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies a partial column update to the agent's profile.
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.AgentProfile{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// ListByCity returns active-or-not profiles serving the given city,
// least-loaded first. City matching is case-insensitive.
func (r *Repository) ListByCity(ctx context.Context, city string) ([]models.AgentProfile, error) {
	var profiles []models.AgentProfile
	err := r.db.WithContext(ctx).
		Where("lower(service_city) = ?", strings.ToLower(strings.TrimSpace(city))).
		Order("active_orders ASC, created_at ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// ListAll returns every agent profile, least-loaded first.
func (r *Repository) ListAll(ctx context.Context) ([]models.AgentProfile, error) {
	var profiles []models.AgentProfile
	err := r.db.WithContext(ctx).
		Order("active_orders ASC, created_at ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

package agents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
)

func setupAgentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS agent_profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  service_city TEXT NOT NULL,
  service_pincode TEXT NOT NULL,
  vehicle_number TEXT,
  max_capacity INTEGER NOT NULL DEFAULT 8,
  active_orders INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM agent_profiles")
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
	})

	return db
}

func seedProfile(t *testing.T, db *gorm.DB, city string, active, capacity int) *models.AgentProfile {
	t.Helper()
	profile := &models.AgentProfile{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ServiceCity:    city,
		ServicePincode: "411001",
		MaxCapacity:    capacity,
		ActiveOrders:   active,
		IsActive:       true,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func TestRepositoryFindByUserID(t *testing.T) {
	db := setupAgentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedProfile(t, db, "Pune", 2, 8)

	found, err := repo.FindByUserID(ctx, seeded.UserID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "Pune", found.ServiceCity)
	assert.Equal(t, 2, found.ActiveOrders)

	_, err = repo.FindByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByCityOrdersByLoad(t *testing.T) {
	db := setupAgentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	busy := seedProfile(t, db, "Pune", 6, 8)
	idle := seedProfile(t, db, "pune", 1, 8)
	seedProfile(t, db, "Mumbai", 0, 8)

	profiles, err := repo.ListByCity(ctx, "PUNE")
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, idle.UserID, profiles[0].UserID)
	assert.Equal(t, busy.UserID, profiles[1].UserID)
}

func TestRepositoryUpdateProfile(t *testing.T) {
	db := setupAgentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedProfile(t, db, "Pune", 0, 8)

	err := repo.UpdateProfile(ctx, seeded.UserID, map[string]any{
		"service_city": "Nashik",
		"max_capacity": 5,
		"is_active":    false,
	})
	require.NoError(t, err)

	found, err := repo.FindByUserID(ctx, seeded.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Nashik", found.ServiceCity)
	assert.Equal(t, 5, found.MaxCapacity)
	assert.False(t, found.IsActive)
}

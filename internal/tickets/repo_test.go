package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	"github.com/greencycle-tech/ewaste-backend/pkg/pagination"
)

func setupTicketsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	supportTickets := `
CREATE TABLE IF NOT EXISTS support_tickets (
  id TEXT PRIMARY KEY,
  ticket_number INTEGER NOT NULL,
  customer_id TEXT NOT NULL,
  order_id TEXT,
  category TEXT NOT NULL,
  priority TEXT NOT NULL DEFAULT 'medium',
  status TEXT NOT NULL DEFAULT 'open',
  subject TEXT NOT NULL,
  resolved_at DATETIME,
  closed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	ticketMessages := `
CREATE TABLE IF NOT EXISTS ticket_messages (
  id TEXT PRIMARY KEY,
  ticket_id TEXT NOT NULL,
  author_id TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(supportTickets).Error)
	require.NoError(t, db.Exec(ticketMessages).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM ticket_messages")
		db.Exec("DELETE FROM support_tickets")
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
	})

	return db
}

var ticketSeq int64 = 500000

func seedStoredTicket(t *testing.T, db *gorm.DB, customerID uuid.UUID, status enums.TicketStatus, createdAt time.Time) *models.SupportTicket {
	t.Helper()
	ticketSeq++
	ticket := &models.SupportTicket{
		ID:           uuid.New(),
		TicketNumber: ticketSeq,
		CustomerID:   customerID,
		Category:     "pickup_delay",
		Priority:     enums.TicketPriorityMedium,
		Status:       status,
		Subject:      "Pickup has not arrived",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
		Messages: []models.TicketMessage{
			{ID: uuid.New(), AuthorID: customerID, Body: "Nobody came in the morning slot.", CreatedAt: createdAt},
		},
	}
	require.NoError(t, db.Create(ticket).Error)
	return ticket
}

func TestTicketRepositoryCreateAndFind(t *testing.T) {
	db := setupTicketsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedStoredTicket(t, db, uuid.New(), enums.TicketStatusOpen, time.Now().UTC())

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.TicketNumber, found.TicketNumber)
	require.Len(t, found.Messages, 1)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTicketRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupTicketsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	older := seedStoredTicket(t, db, customerID, enums.TicketStatusOpen, base)
	newer := seedStoredTicket(t, db, customerID, enums.TicketStatusResolved, base.Add(time.Minute))
	seedStoredTicket(t, db, uuid.New(), enums.TicketStatusOpen, base)

	first, err := repo.List(ctx, &customerID, pagination.Params{Limit: 1}, Filters{})
	require.NoError(t, err)
	require.Len(t, first.Tickets, 1)
	assert.Equal(t, newer.ID, first.Tickets[0].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, &customerID, pagination.Params{Limit: 1, Cursor: first.NextCursor}, Filters{})
	require.NoError(t, err)
	require.Len(t, second.Tickets, 1)
	assert.Equal(t, older.ID, second.Tickets[0].ID)
	assert.Empty(t, second.NextCursor)

	resolved := enums.TicketStatusResolved
	filtered, err := repo.List(ctx, nil, pagination.Params{Limit: 10}, Filters{Status: &resolved})
	require.NoError(t, err)
	require.Len(t, filtered.Tickets, 1)
	assert.Equal(t, newer.ID, filtered.Tickets[0].ID)
}

func TestTicketRepositoryAppendMessageAndStatus(t *testing.T) {
	db := setupTicketsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedStoredTicket(t, db, uuid.New(), enums.TicketStatusOpen, time.Now().UTC())

	require.NoError(t, repo.AppendMessage(ctx, &models.TicketMessage{
		ID:       uuid.New(),
		TicketID: seeded.ID,
		AuthorID: uuid.New(),
		Body:     "We have dispatched an agent.",
	}))

	now := time.Now().UTC()
	require.NoError(t, repo.UpdateStatus(ctx, seeded.ID, map[string]any{
		"status":      enums.TicketStatusInProgress,
		"resolved_at": nil,
	}))

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TicketStatusInProgress, found.Status)
	require.Len(t, found.Messages, 2)
	assert.True(t, found.Messages[0].CreatedAt.Before(now.Add(time.Minute)))
}

package notifications

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
	"github.com/greencycle-tech/ewaste-backend/pkg/pagination"
)

type stubNotificationRepo struct {
	rows []*models.Notification
}

func (s *stubNotificationRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	s.rows = append(s.rows, n)
	return nil
}

func (s *stubNotificationRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	var out []models.Notification
	for _, n := range s.rows {
		if n.UserID != params.UserID {
			continue
		}
		if params.UnreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, *n)
	}
	return out, nil, nil
}

func (s *stubNotificationRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	for _, n := range s.rows {
		if n.ID == notificationID && n.UserID == userID {
			updated := n.ReadAt == nil
			n.ReadAt = &now
			return notificationMarkResult{Found: true, Updated: updated}, nil
		}
	}
	return notificationMarkResult{}, nil
}

func (s *stubNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	for _, n := range s.rows {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (s *stubNotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func assertNotificationCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNilf(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestListRequiresUser(t *testing.T) {
	svc, err := NewService(&stubNotificationRepo{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{})
	assertNotificationCode(t, err, pkgerrors.CodeValidation)
}

func TestListRejectsMalformedCursor(t *testing.T) {
	svc, err := NewService(&stubNotificationRepo{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "not-base64!"})
	assertNotificationCode(t, err, pkgerrors.CodeValidation)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := &stubNotificationRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	owner := uuid.New()
	n := &models.Notification{ID: uuid.New(), UserID: owner, Kind: enums.NotificationOrderAssigned}
	repo.rows = append(repo.rows, n)

	require.NoError(t, svc.MarkRead(context.Background(), owner, n.ID))
	assert.NotNil(t, n.ReadAt)

	err = svc.MarkRead(context.Background(), uuid.New(), n.ID)
	assertNotificationCode(t, err, pkgerrors.CodeNotFound)
}

func TestMarkAllReadCountsUpdates(t *testing.T) {
	repo := &stubNotificationRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	owner := uuid.New()
	now := time.Now().UTC()
	repo.rows = append(repo.rows,
		&models.Notification{ID: uuid.New(), UserID: owner},
		&models.Notification{ID: uuid.New(), UserID: owner},
		&models.Notification{ID: uuid.New(), UserID: owner, ReadAt: &now},
		&models.Notification{ID: uuid.New(), UserID: uuid.New()},
	)

	count, err := svc.MarkAllRead(context.Background(), owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestProducerWritesAssignmentNotifications(t *testing.T) {
	repo := &stubNotificationRepo{}
	log := logger.New(logger.Options{Output: io.Discard})
	producer, err := NewProducer(repo, log)
	require.NoError(t, err)

	agentID := uuid.New()
	order := &models.PickupOrder{ID: uuid.New(), OrderNumber: 100042}
	order.Address.City = "Pune"
	order.Address.Pincode = "411001"
	order.TimeSlot = enums.TimeSlotMorning
	order.PreferredDate = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	require.NoError(t, producer.NotifyAssignment(context.Background(), agentID, order, enums.AssignmentModeManual))
	require.NoError(t, producer.NotifyAssignment(context.Background(), agentID, order, enums.AssignmentModeReassign))

	require.Len(t, repo.rows, 2)
	assert.Equal(t, enums.NotificationOrderAssigned, repo.rows[0].Kind)
	assert.Equal(t, enums.NotificationOrderReassigned, repo.rows[1].Kind)
	assert.Equal(t, agentID, repo.rows[0].UserID)
	require.NotNil(t, repo.rows[0].OrderID)
	assert.Equal(t, order.ID, *repo.rows[0].OrderID)
	assert.Contains(t, repo.rows[0].Title, "100042")
}

func TestProducerWritesTicketReplyNotification(t *testing.T) {
	repo := &stubNotificationRepo{}
	log := logger.New(logger.Options{Output: io.Discard})
	producer, err := NewProducer(repo, log)
	require.NoError(t, err)

	customerID := uuid.New()
	ticket := &models.SupportTicket{ID: uuid.New(), TicketNumber: 500007, CustomerID: customerID, Subject: "Pickup has not arrived"}

	require.NoError(t, producer.NotifyTicketReply(context.Background(), customerID, ticket))
	require.Len(t, repo.rows, 1)
	assert.Equal(t, enums.NotificationTicketReply, repo.rows[0].Kind)
	assert.Equal(t, customerID, repo.rows[0].UserID)
	assert.Contains(t, repo.rows[0].Title, "500007")
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

const defaultNotificationMaxAge = 30 * 24 * time.Hour

type notificationJanitor interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationCleanupJobParams configure the notification cleanup job.
type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Notifications notificationJanitor
	MaxAge        time.Duration
}

// NewNotificationCleanupJob builds the job that deletes old read notifications.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultNotificationMaxAge
	}
	return &notificationCleanupJob{
		logg:          params.Logger,
		notifications: params.Notifications,
		maxAge:        maxAge,
		now:           time.Now,
	}, nil
}

type notificationCleanupJob struct {
	logg          *logger.Logger
	notifications notificationJanitor
	maxAge        time.Duration
	now           func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	deleted, err := j.notifications.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

const defaultEventRetention = 90 * 24 * time.Hour

type eventPurger interface {
	PurgeEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventRetentionJobParams configure the assignment event retention job.
type EventRetentionJobParams struct {
	Logger      *logger.Logger
	Assignments eventPurger
	Retention   time.Duration
}

// NewEventRetentionJob builds the job that trims old assignment audit events.
func NewEventRetentionJob(params EventRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Assignments == nil {
		return nil, fmt.Errorf("assignment service required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultEventRetention
	}
	return &eventRetentionJob{
		logg:        params.Logger,
		assignments: params.Assignments,
		retention:   retention,
		now:         time.Now,
	}, nil
}

type eventRetentionJob struct {
	logg        *logger.Logger
	assignments eventPurger
	retention   time.Duration
	now         func() time.Time
}

func (j *eventRetentionJob) Name() string { return "event-retention" }

func (j *eventRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	purged, err := j.assignments.PurgeEventsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("event retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": purged,
	})
	j.logg.Info(logCtx, "event retention complete")
	return nil
}

package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

type fakeEventPurger struct {
	lastCutoff time.Time
	purged     int64
	err        error
	called     int
}

func (f *fakeEventPurger) PurgeEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.purged, nil
}

func TestEventRetentionJobPurgesOldEvents(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	purger := &fakeEventPurger{purged: 17}
	jobIface, err := NewEventRetentionJob(EventRetentionJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Assignments: purger,
		Retention:   30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewEventRetentionJob: %v", err)
	}
	job := jobIface.(*eventRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-30 * 24 * time.Hour)
	if !purger.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, purger.lastCutoff)
	}
	if purger.called != 1 {
		t.Fatalf("expected one purge, got %d", purger.called)
	}
}

func TestEventRetentionJobDefaultsRetention(t *testing.T) {
	jobIface, err := NewEventRetentionJob(EventRetentionJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Assignments: &fakeEventPurger{},
	})
	if err != nil {
		t.Fatalf("NewEventRetentionJob: %v", err)
	}
	if jobIface.(*eventRetentionJob).retention != defaultEventRetention {
		t.Fatalf("expected default retention")
	}
}

func TestEventRetentionJobPropagatesErrors(t *testing.T) {
	jobIface, err := NewEventRetentionJob(EventRetentionJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Assignments: &fakeEventPurger{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewEventRetentionJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

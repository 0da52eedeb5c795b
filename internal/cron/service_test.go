package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type fakeLockFactory struct {
	locks map[string]*fakeLock
}

func (f *fakeLockFactory) LockFor(name string, ttl time.Duration) (Lock, error) {
	if f.locks == nil {
		f.locks = map[string]*fakeLock{}
	}
	lock := &fakeLock{}
	f.locks[name] = lock
	return lock, nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunJobReleasesLockOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	service, err := NewService(ServiceParams{Logger: logg, Locks: &fakeLockFactory{}})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	job := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service.runJob(context.Background(), job, lock)

	if job.runs != 1 {
		t.Fatalf("expected job to run once, ran %d", job.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestServiceRunJobSkipsWhenLockHeld(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	service, err := NewService(ServiceParams{Logger: logg, Locks: &fakeLockFactory{}})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	job := &testJob{name: "held"}
	lock := &fakeLock{held: true}
	service.runJob(context.Background(), job, lock)

	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatalf("expected no release, got %d", lock.releases)
	}
}

func TestServiceRunStopsOnContextCancel(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	factory := &fakeLockFactory{}
	job := &testJob{name: "once"}
	registry := NewRegistry(Entry{Job: job, Every: time.Hour})
	service, err := NewService(ServiceParams{Logger: logg, Registry: registry, Locks: factory})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	// The first run happens before the ticker fires.
	deadline := time.After(2 * time.Second)
	for job.runs == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	if lock := factory.locks["once"]; lock == nil || lock.releases != lock.acquires {
		t.Fatalf("expected every acquire released, got %+v", lock)
	}
}

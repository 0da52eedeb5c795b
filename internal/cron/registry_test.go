package cron

import (
	"testing"
	"time"
)

func TestRegistryIgnoresNilAndZeroIntervalEntries(t *testing.T) {
	registry := NewRegistry(
		Entry{Job: &testJob{name: "a"}, Every: time.Minute},
		Entry{Job: nil, Every: time.Minute},
		Entry{Job: &testJob{name: "b"}, Every: 0},
	)
	registry.Register(&testJob{name: "c"}, time.Hour)

	entries := registry.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Job.Name() != "a" || entries[1].Job.Name() != "c" {
		t.Fatalf("unexpected order: %s, %s", entries[0].Job.Name(), entries[1].Job.Name())
	}
}

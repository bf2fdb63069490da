package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/store/memory"
)

// mockDestination records calls to Write.
type mockDestination struct {
	name   string
	err    error
	writes atomic.Int64
	last   atomic.Value // []byte
}

func (d *mockDestination) Name() string { return d.name }

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	dest := &mockDestination{name: "mock"}
	sched := NewScheduler(seededStore(t), []Destination{dest}, 20*time.Millisecond, testLogger())
	sched.Start()

	// Several ticks pass with an unchanged store.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes != 1 {
		t.Fatalf("expected 1 write for unchanged content, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	// 1 header + 2 attributes + 1 holiday
	if lines := nonEmptyLines(string(data)); len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
}

func TestSyncNow_WritesOnlyChanges(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	dest := &mockDestination{name: "mock"}
	sched := NewScheduler(s, []Destination{dest}, 0, testLogger())

	for i := 0; i < 3; i++ {
		if err := sched.SyncNow(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if got := dest.writes.Load(); got != 1 {
		t.Fatalf("writes = %d, want 1", got)
	}

	if _, err := s.UpsertAttribute(ctx, &model.Attribute{Category: "study", Name: "site_name", Value: "gaborone", Convert: true}); err != nil {
		t.Fatal(err)
	}
	if err := sched.SyncNow(ctx); err != nil {
		t.Fatal(err)
	}
	if got := dest.writes.Load(); got != 2 {
		t.Fatalf("writes after change = %d, want 2", got)
	}
}

func TestSyncNow_RetriesFailedDestination(t *testing.T) {
	ctx := context.Background()
	dest := &mockDestination{name: "flaky", err: errors.New("timeout")}
	sched := NewScheduler(seededStore(t), []Destination{dest}, 0, nil)

	if err := sched.SyncNow(ctx); err == nil {
		t.Fatal("expected an error")
	}
	dest.err = nil
	if err := sched.SyncNow(ctx); err != nil {
		t.Fatal(err)
	}
	if got := dest.writes.Load(); got != 2 {
		t.Fatalf("writes = %d, want a retry after the failure", got)
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(memory.New(), nil, time.Minute, testLogger())
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	dest1 := &mockDestination{name: "one"}
	dest2 := &mockDestination{name: "two"}
	sched := NewScheduler(memory.New(), []Destination{dest1, dest2}, time.Second, testLogger())
	sched.Start()

	// Wait for the initial sync.
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if dest1.writes.Load() < 1 {
		t.Fatal("dest1 expected at least 1 write")
	}
	if dest2.writes.Load() < 1 {
		t.Fatal("dest2 expected at least 1 write")
	}
}

func TestSyncNow_JoinsDestinationErrors(t *testing.T) {
	failing := &mockDestination{name: "broken", err: errors.New("unreachable")}
	ok := &mockDestination{name: "ok"}
	sched := NewScheduler(seededStore(t), []Destination{failing, ok}, time.Minute, testLogger())

	err := sched.SyncNow(context.Background())
	if err == nil || !strings.Contains(err.Error(), "broken: unreachable") {
		t.Fatalf("expected joined destination error, got %v", err)
	}
	if ok.writes.Load() != 1 {
		t.Fatal("a failing destination stopped the others")
	}
}

func TestSchedulerStart_NoInterval(t *testing.T) {
	dest := &mockDestination{name: "once"}
	sched := NewScheduler(seededStore(t), []Destination{dest}, 0, testLogger())
	sched.Start()
	sched.Stop()

	if got := dest.writes.Load(); got != 1 {
		t.Fatalf("writes = %d, want 1", got)
	}
}

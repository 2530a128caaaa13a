package scheduler

import (
	"sync"
	"testing"
	"time"

	"prosync-go/internal/prosync"
)

// triggerRecorder counts trigger invocations per connection id.
type triggerRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func newTriggerRecorder() *triggerRecorder {
	return &triggerRecorder{calls: make(map[string]int)}
}

func (r *triggerRecorder) trigger(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[connID]++
}

func (r *triggerRecorder) count(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[connID]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestScheduler_Set(t *testing.T) {
	t.Run("fires the trigger at the configured interval", func(t *testing.T) {
		t.Parallel()
		rec := newTriggerRecorder()
		s := New(nil, rec.trigger)
		s.tickBase = 10 * time.Millisecond
		defer s.Stop()

		s.Set("c1", prosync.AutoSync{Enabled: true, IntervalMinutes: 1})

		if !waitFor(t, 2*time.Second, func() bool { return rec.count("c1") >= 2 }) {
			t.Fatalf("trigger fired %d times, want at least 2", rec.count("c1"))
		}
	})

	t.Run("disabled autosync removes the schedule", func(t *testing.T) {
		t.Parallel()
		rec := newTriggerRecorder()
		s := New(nil, rec.trigger)
		s.tickBase = 10 * time.Millisecond
		defer s.Stop()

		s.Set("c1", prosync.AutoSync{Enabled: true, IntervalMinutes: 1})
		waitFor(t, 2*time.Second, func() bool { return rec.count("c1") >= 1 })

		s.Set("c1", prosync.AutoSync{Enabled: false})
		fired := rec.count("c1")
		time.Sleep(100 * time.Millisecond)
		if rec.count("c1") != fired {
			t.Errorf("trigger fired after disable: %d -> %d", fired, rec.count("c1"))
		}
	})

	t.Run("setting again replaces the previous schedule", func(t *testing.T) {
		t.Parallel()
		rec := newTriggerRecorder()
		s := New(nil, rec.trigger)
		s.tickBase = 10 * time.Millisecond
		defer s.Stop()

		s.Set("c1", prosync.AutoSync{Enabled: true, IntervalMinutes: 1})
		// Replace with a much longer interval; the old ticker must be gone.
		s.Set("c1", prosync.AutoSync{Enabled: true, IntervalMinutes: 60 * 60})

		fired := rec.count("c1")
		time.Sleep(100 * time.Millisecond)
		if rec.count("c1") != fired {
			t.Errorf("old schedule still firing: %d -> %d", fired, rec.count("c1"))
		}
	})

	t.Run("interval below one minute is clamped", func(t *testing.T) {
		t.Parallel()
		rec := newTriggerRecorder()
		s := New(nil, rec.trigger)
		s.tickBase = 10 * time.Millisecond
		defer s.Stop()

		s.Set("c1", prosync.AutoSync{Enabled: true, IntervalMinutes: 0})
		if !waitFor(t, 2*time.Second, func() bool { return rec.count("c1") >= 1 }) {
			t.Fatal("clamped schedule never fired")
		}
	})
}

func TestScheduler_RemoveAndStop(t *testing.T) {
	t.Parallel()

	rec := newTriggerRecorder()
	s := New(nil, rec.trigger)
	s.tickBase = 10 * time.Millisecond

	s.Set("c1", prosync.AutoSync{Enabled: true, IntervalMinutes: 1})
	s.Set("c2", prosync.AutoSync{Enabled: true, IntervalMinutes: 1})

	s.Remove("c1")
	c1 := rec.count("c1")
	waitFor(t, time.Second, func() bool { return rec.count("c2") >= 1 })
	if rec.count("c1") != c1 {
		t.Error("removed schedule kept firing")
	}

	s.Stop()
	c2 := rec.count("c2")
	time.Sleep(100 * time.Millisecond)
	if rec.count("c2") != c2 {
		t.Error("schedule fired after Stop")
	}

	// Removing an unknown id is harmless.
	s.Remove("nope")
}

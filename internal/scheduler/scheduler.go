// Package scheduler drives automatic syncs: each connection with autosync
// enabled gets its own ticker goroutine that fires the trigger callback at
// its configured interval.
package scheduler

import (
	"sync"
	"time"

	"prosync-go/internal/prosync"
)

// TriggerFunc is called with a connection id each time its interval elapses.
// It must not block for long; kicking off a sync run is expected to be
// asynchronous (the engine rejects overlapping runs itself).
type TriggerFunc func(connID string)

// Scheduler manages one ticker per autosync-enabled connection.
type Scheduler struct {
	mu      sync.Mutex
	logger  prosync.Logger
	trigger TriggerFunc
	entries map[string]*entry

	// tickBase scales interval minutes into durations. Tests shrink it so
	// schedules fire in milliseconds.
	tickBase time.Duration
}

type entry struct {
	stop chan struct{}
	done chan struct{}
}

// New creates a Scheduler. logger may be nil.
func New(logger prosync.Logger, trigger TriggerFunc) *Scheduler {
	if logger == nil {
		logger = prosync.NewNopLogger()
	}
	return &Scheduler{
		logger:   logger,
		trigger:  trigger,
		entries:  make(map[string]*entry),
		tickBase: time.Minute,
	}
}

// Set installs or updates the schedule for a connection. Disabled autosync
// removes any existing schedule.
func (s *Scheduler) Set(connID string, auto prosync.AutoSync) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(connID)
	if !auto.Enabled {
		return
	}

	minutes := auto.IntervalMinutes
	if minutes < 1 {
		minutes = 1
	}
	interval := time.Duration(minutes) * s.tickBase

	e := &entry{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.entries[connID] = e
	s.logger.Info("autosync scheduled", "connection", connID, "interval_minutes", minutes)

	go s.run(connID, interval, e)
}

// Remove cancels the schedule for a connection, if any.
func (s *Scheduler) Remove(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(connID)
}

// removeLocked stops and waits out a connection's ticker goroutine.
// Caller must hold s.mu.
func (s *Scheduler) removeLocked(connID string) {
	e, ok := s.entries[connID]
	if !ok {
		return
	}
	delete(s.entries, connID)
	close(e.stop)
	<-e.done
}

// Stop cancels all schedules and waits for their goroutines to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.entries {
		s.removeLocked(id)
	}
}

func (s *Scheduler) run(connID string, interval time.Duration, e *entry) {
	defer close(e.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			s.logger.Debug("autosync tick", "connection", connID)
			s.trigger(connID)
		}
	}
}

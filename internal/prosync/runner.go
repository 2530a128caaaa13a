package prosync

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a sync task is requested while another is active.
var ErrBusy = errors.New("a sync task is already running")

// Runner enforces the one-task-at-a-time model: a single background worker
// per process, rejected starts while one is active, and cooperative
// pause/resume/cancel for the active run.
type Runner struct {
	mu     sync.Mutex
	logger Logger

	activeID string
	control  *Control
	done     chan struct{}
}

func NewRunner(logger Logger) *Runner {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Runner{logger: logger}
}

// Start launches run on a background goroutine, handing it the run's
// Control. It returns ErrBusy if another task is still active.
func (r *Runner) Start(connID string, run func(ctl *Control)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		select {
		case <-r.done:
			// Previous task finished; fall through.
		default:
			r.logger.Debug("sync start rejected, task active", "active", r.activeID, "requested", connID)
			return ErrBusy
		}
	}

	ctl := NewControl()
	done := make(chan struct{})
	r.activeID = connID
	r.control = ctl
	r.done = done

	go func() {
		defer close(done)
		run(ctl)
	}()
	return nil
}

// ActiveID returns the connection id of the running task, or "" when idle.
func (r *Runner) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return ""
	}
	select {
	case <-r.done:
		return ""
	default:
		return r.activeID
	}
}

// Busy reports whether a task is currently active.
func (r *Runner) Busy() bool { return r.ActiveID() != "" }

// Pause suspends the active run at its next safe point.
func (r *Runner) Pause() {
	if ctl := r.activeControl(); ctl != nil {
		ctl.Pause()
	}
}

// Resume lifts a pause.
func (r *Runner) Resume() {
	if ctl := r.activeControl(); ctl != nil {
		ctl.Resume()
	}
}

// Cancel requests a cooperative stop; the worker exits after the action in
// flight completes. Partially completed copies are not rolled back.
func (r *Runner) Cancel() {
	if ctl := r.activeControl(); ctl != nil {
		ctl.Cancel()
	}
}

// Wait blocks until the active task (if any) finishes.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Runner) activeControl() *Control {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.control
}

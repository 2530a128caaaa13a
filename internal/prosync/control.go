package prosync

import (
	"sync/atomic"
	"time"
)

// pausePoll is how long a paused worker sleeps between flag checks.
const pausePoll = 200 * time.Millisecond

// Control carries the cooperative pause and cancel flags for one run.
// Executors poll it between actions, never mid-copy, so an in-flight file
// copy always completes before the run suspends or stops.
type Control struct {
	paused    atomic.Bool
	cancelled atomic.Bool
}

func NewControl() *Control { return &Control{} }

func (c *Control) Pause()  { c.paused.Store(true) }
func (c *Control) Resume() { c.paused.Store(false) }
func (c *Control) Cancel() { c.cancelled.Store(true) }

func (c *Control) Paused() bool    { return c.paused.Load() }
func (c *Control) Cancelled() bool { return c.cancelled.Load() }

// Poll blocks while the run is paused and reports whether cancellation was
// requested. Callers stop after the current action when it returns true.
func (c *Control) Poll() bool {
	for {
		if c.cancelled.Load() {
			return true
		}
		if !c.paused.Load() {
			return false
		}
		time.Sleep(pausePoll)
	}
}

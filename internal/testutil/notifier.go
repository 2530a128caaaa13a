package testutil

import (
	"sync"

	"prosync-go/internal/prosync"
)

// RecordingNotifier captures all notifications for assertions.
// Safe for concurrent use.
type RecordingNotifier struct {
	mu       sync.Mutex
	progress []int
	phases   []string
	statuses []string
	errors   []string
	finished bool
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Progress(pct int, phase string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, pct)
	n.phases = append(n.phases, phase)
}

func (n *RecordingNotifier) Status(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, msg)
}

func (n *RecordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *RecordingNotifier) Finished() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finished = true
}

// ProgressValues returns the recorded progress percentages in order.
func (n *RecordingNotifier) ProgressValues() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.progress...)
}

// Phases returns the recorded progress phases in order.
func (n *RecordingNotifier) Phases() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.phases...)
}

// Statuses returns the recorded status messages in order.
func (n *RecordingNotifier) Statuses() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.statuses...)
}

// Errors returns the recorded error messages in order.
func (n *RecordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

// IsFinished reports whether Finished was called.
func (n *RecordingNotifier) IsFinished() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.finished
}

// Compile-time check
var _ prosync.Notifier = (*RecordingNotifier)(nil)

package prosync

// Notifier receives run notifications for display. The GUI-less default is a
// terminal printer in the CLI; tests use a recording implementation.
type Notifier interface {
	// Progress reports an integer percentage 0-100 plus a phase tag.
	Progress(pct int, phase string)
	// Status reports a human-readable status line.
	Status(msg string)
	// Error reports a terminal, run-ending error.
	Error(msg string)
	// Finished signals successful completion. No payload.
	Finished()
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func NewNopNotifier() *NopNotifier { return &NopNotifier{} }

func (*NopNotifier) Progress(int, string) {}
func (*NopNotifier) Status(string)        {}
func (*NopNotifier) Error(string)         {}
func (*NopNotifier) Finished()            {}

package prosync

// ItemFailure records one action that failed during a folder run.
type ItemFailure struct {
	Path string
	Kind ActionKind
	Err  error
}

// RunSummary aggregates per-item outcomes of a folder sync run. Per-item
// failures do not abort the run; they are collected here so callers can
// report them instead of digging through logs.
type RunSummary struct {
	Total     int
	Copied    int
	Deleted   int
	Indexed   int
	Skipped   int
	Failed    int
	Cancelled bool
	Failures  []ItemFailure
}

func (s *RunSummary) recordFailure(action Action, err error) {
	s.Failed++
	s.Failures = append(s.Failures, ItemFailure{Path: action.Path, Kind: action.Kind, Err: err})
}

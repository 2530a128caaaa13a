package prosync

import (
	"sort"
	"time"
)

// ActionKind tags the decision made for one relative path.
type ActionKind string

const (
	ActionCopyToTarget ActionKind = "copy_to_target"
	ActionCopyToSource ActionKind = "copy_to_source"
	ActionDeleteTarget ActionKind = "delete_target"
	ActionIndexSource  ActionKind = "index_source"
	ActionIndexBoth    ActionKind = "index_both"
)

// Action is one planned operation on a relative path.
type Action struct {
	Kind ActionKind
	Path string
}

// DefaultModTimeTolerance is the modification-time skew below which two
// entries of equal size are considered the same file.
const DefaultModTimeTolerance = time.Second

// Planner computes the action list for a pair of tree snapshots.
// It is state-free; the tolerance is the only knob.
type Planner struct {
	tolerance time.Duration
}

// NewPlanner creates a Planner. A non-positive tolerance selects the default.
func NewPlanner(tolerance time.Duration) *Planner {
	if tolerance <= 0 {
		tolerance = DefaultModTimeTolerance
	}
	return &Planner{tolerance: tolerance}
}

// Plan compares two snapshots and returns the actions the given mode and
// conflict policy call for, in sorted path order. The order carries no
// semantic weight but keeps progress reporting stable across runs.
func (p *Planner) Plan(src, tgt Snapshot, mode SyncMode, policy ConflictPolicy) []Action {
	union := make(map[string]struct{}, len(src)+len(tgt))
	for path := range src {
		union[path] = struct{}{}
	}
	for path := range tgt {
		union[path] = struct{}{}
	}
	paths := make([]string, 0, len(union))
	for path := range union {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var actions []Action
	for _, path := range paths {
		sEntry, inSrc := src[path]
		tEntry, inTgt := tgt[path]

		switch {
		case inSrc && !inTgt:
			switch mode {
			case ModeMirror, ModeUpdate, ModeTwoWay:
				actions = append(actions, Action{ActionCopyToTarget, path})
			case ModeIndexOnly:
				actions = append(actions, Action{ActionIndexSource, path})
			}

		case !inSrc && inTgt:
			switch mode {
			case ModeMirror:
				actions = append(actions, Action{ActionDeleteTarget, path})
			case ModeTwoWay:
				actions = append(actions, Action{ActionCopyToSource, path})
			}
			// update and index_only leave extra target files alone.

		default: // present on both sides
			if sEntry.Equal(tEntry, p.tolerance) {
				if mode == ModeIndexOnly {
					actions = append(actions, Action{ActionIndexSource, path})
				} else {
					actions = append(actions, Action{ActionIndexBoth, path})
				}
				continue
			}
			switch mode {
			case ModeMirror, ModeUpdate:
				actions = append(actions, Action{ActionCopyToTarget, path})
			case ModeTwoWay:
				actions = append(actions, Action{resolveConflict(policy, sEntry, tEntry), path})
			}
		}
	}
	return actions
}

// resolveConflict picks the copy direction for a path changed on both sides.
// With the newest policy, ties favor the source.
func resolveConflict(policy ConflictPolicy, src, tgt Entry) ActionKind {
	switch policy {
	case PolicyTarget:
		return ActionCopyToSource
	case PolicyNewest:
		if tgt.ModTime.After(src.ModTime) {
			return ActionCopyToSource
		}
		return ActionCopyToTarget
	default: // source
		return ActionCopyToTarget
	}
}

package prosync

import (
	"sort"
	"time"
)

// Entry is the metadata recorded for one file during a tree scan.
type Entry struct {
	ModTime time.Time
	Size    int64
	AbsPath string
}

// Snapshot is a point-in-time view of a directory tree, keyed by relative
// path with forward slashes. Snapshots are built fresh on every scan and
// never persisted.
type Snapshot map[string]Entry

// Paths returns the snapshot's relative paths in sorted order.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Equal reports whether two entries describe the same file content, using
// size plus a modification-time tolerance. Filesystems differ in timestamp
// precision, so a small skew does not count as a change.
func (e Entry) Equal(other Entry, tolerance time.Duration) bool {
	if e.Size != other.Size {
		return false
	}
	delta := e.ModTime.Sub(other.ModTime)
	if delta < 0 {
		delta = -delta
	}
	return delta <= tolerance
}

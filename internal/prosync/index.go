package prosync

import "time"

// Index is the slice of the version index store the folder executor writes
// to. Files are deduplicated by content hash; versions accumulate per path.
type Index interface {
	// LogVersion records one observed copy of a file and returns the id of
	// the content-addressed file row. Logging the same (path, modTime) pair
	// twice is a no-op that returns the existing id.
	LogVersion(name, path string, modTime time.Time, size int64, contentHash string, side Side) (int64, error)

	// AddTag attaches a free-text label to a file id. Duplicate
	// (file, tag) pairs are suppressed.
	AddTag(fileID int64, tag string) error
}

// Checkpointer forces a WAL-mode SQLite database to merge its write-ahead
// log into the main file, so a byte copy of the main file is self-consistent.
type Checkpointer interface {
	Checkpoint(path string) error
}

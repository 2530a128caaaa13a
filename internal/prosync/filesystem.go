package prosync

import "io/fs"

// Filesystem provides the file operations the executors need. It abstracts
// the real filesystem to enable testing without touching disk.
type Filesystem interface {
	// Scan walks root and returns a snapshot of every regular file, keyed by
	// slash-separated relative path. Directory and file names matching any
	// of the glob patterns are pruned/skipped. A missing root yields an
	// empty snapshot, not an error.
	Scan(root string, excludePatterns []string) (Snapshot, error)

	// Copy copies src to dst as a whole file, preserving permissions and
	// modification time. The parent directory of dst must already exist.
	Copy(src, dst string) error

	// Remove deletes a file. Removing a file that does not exist is not an
	// error.
	Remove(path string) error

	// MkdirAll creates a directory along with any missing parents.
	MkdirAll(dir string) error

	// Stat returns current file info for a path.
	Stat(path string) (fs.FileInfo, error)

	// HashFile returns the lowercase hex SHA-256 digest of a file's content.
	HashFile(path string) (string, error)
}

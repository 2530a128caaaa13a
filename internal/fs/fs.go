package fs

import (
	"io/fs"
	"os"

	"prosync-go/internal/prosync"
)

// OSFilesystem is the real filesystem implementation of prosync.Filesystem.
type OSFilesystem struct{}

// NewOSFilesystem creates a filesystem manager operating on the real filesystem.
func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{}
}

// Copy copies a file preserving permissions and modification time.
func (f *OSFilesystem) Copy(src, dst string) error {
	return CopyFile(src, dst)
}

// Remove deletes a file. A file that is already gone is not an error.
func (f *OSFilesystem) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// MkdirAll creates a directory along with any missing parents.
func (f *OSFilesystem) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// Stat returns fresh file info for a path.
func (f *OSFilesystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// HashFile returns the SHA-256 digest of a file's content.
func (f *OSFilesystem) HashFile(path string) (string, error) {
	return HashFile(path)
}

// Compile-time check that OSFilesystem implements prosync.Filesystem.
var _ prosync.Filesystem = (*OSFilesystem)(nil)

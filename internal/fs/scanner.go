package fs

import (
	"io/fs"
	"os"
	"path/filepath"

	"prosync-go/internal/prosync"
)

// Scan walks root and builds a snapshot of every regular file beneath it.
// Directories whose name matches an exclude pattern are pruned; matching
// files are skipped. A file that vanishes between listing and stat is
// silently omitted, and a missing root yields an empty snapshot.
//
// Only regular files are recorded. Symlinks are not followed, which also
// rules out symlink cycles; files reachable only through a symlinked
// directory are not part of the snapshot.
func (f *OSFilesystem) Scan(root string, excludePatterns []string) (prosync.Snapshot, error) {
	snapshot := prosync.Snapshot{}

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return snapshot, nil
		}
		return nil, err
	}

	matcher := NewExcludeMatcher(excludePatterns)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entry vanished or is unreadable; skip it, not the scan.
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && matcher.MatchName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.MatchName(d.Name()) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Deleted during the scan.
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		snapshot[filepath.ToSlash(rel)] = prosync.Entry{
			ModTime: info.ModTime(),
			Size:    info.Size(),
			AbsPath: path,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"prosync-go/internal/prosync"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content []byte
	ModTime time.Time
}

// MockFilesystem is an in-memory prosync.Filesystem. Paths are slash
// separated and treated as opaque strings; there is no working directory.
// Safe for concurrent use.
type MockFilesystem struct {
	mu    sync.Mutex
	files map[string]*MockFile
	dirs  map[string]bool

	// FailCopy injects an error for Copy calls whose source matches a key.
	FailCopy map[string]error
	// FailHash injects an error for HashFile calls on matching paths.
	FailHash map[string]error
}

// NewMockFilesystem creates an empty mock filesystem.
func NewMockFilesystem() *MockFilesystem {
	return &MockFilesystem{
		files:    make(map[string]*MockFile),
		dirs:     make(map[string]bool),
		FailCopy: make(map[string]error),
		FailHash: make(map[string]error),
	}
}

// AddFile adds a file with the given content and modification time.
func (m *MockFilesystem) AddFile(p string, content []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = &MockFile{Content: append([]byte(nil), content...), ModTime: modTime}
}

// Exists reports whether a file is present.
func (m *MockFilesystem) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[p]
	return ok
}

// Content returns a file's content, or nil if absent.
func (m *MockFilesystem) Content(p string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[p]
	if !ok {
		return nil
	}
	return append([]byte(nil), f.Content...)
}

func (m *MockFilesystem) Scan(root string, excludePatterns []string) (prosync.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := prosync.Snapshot{}
	prefix := strings.TrimSuffix(root, "/") + "/"
	for p, f := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rel := strings.TrimPrefix(p, prefix)
		if anySegmentMatches(rel, excludePatterns) {
			continue
		}
		snap[rel] = prosync.Entry{
			ModTime: f.ModTime,
			Size:    int64(len(f.Content)),
			AbsPath: p,
		}
	}
	return snap, nil
}

// anySegmentMatches reports whether any path segment of rel matches one of
// the glob patterns, mirroring the name-based matching of the OS scanner.
func anySegmentMatches(rel string, patterns []string) bool {
	for _, seg := range strings.Split(rel, "/") {
		for _, pattern := range patterns {
			if ok, _ := path.Match(pattern, seg); ok {
				return true
			}
		}
	}
	return false
}

func (m *MockFilesystem) Copy(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailCopy[src]; ok {
		return err
	}
	f, ok := m.files[src]
	if !ok {
		return fmt.Errorf("file not found: %s", src)
	}
	m.files[dst] = &MockFile{Content: append([]byte(nil), f.Content...), ModTime: f.ModTime}
	return nil
}

func (m *MockFilesystem) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	return nil
}

func (m *MockFilesystem) MkdirAll(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[dir] = true
	return nil
}

func (m *MockFilesystem) Stat(p string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", p)
	}
	return &mockFileInfo{
		name:    path.Base(p),
		size:    int64(len(f.Content)),
		modTime: f.ModTime,
	}, nil
}

func (m *MockFilesystem) HashFile(p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailHash[p]; ok {
		return "", err
	}
	f, ok := m.files[p]
	if !ok {
		return "", fmt.Errorf("file not found: %s", p)
	}
	h := sha256.Sum256(f.Content)
	return hex.EncodeToString(h[:]), nil
}

// Paths returns all file paths in sorted order, for assertions.
func (m *MockFilesystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return 0644 }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return false }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ prosync.Filesystem = (*MockFilesystem)(nil)

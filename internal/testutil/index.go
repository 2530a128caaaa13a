package testutil

import (
	"sync"
	"time"

	"prosync-go/internal/prosync"
)

// LoggedVersion records one MemoryIndex.LogVersion call.
type LoggedVersion struct {
	Name        string
	Path        string
	ModTime     time.Time
	Size        int64
	ContentHash string
	Side        prosync.Side
}

// MemoryIndex is an in-memory prosync.Index: content hashes get sequential
// file ids, duplicate (path, modTime) observations are suppressed, and all
// calls are recorded for assertions. Safe for concurrent use.
type MemoryIndex struct {
	mu       sync.Mutex
	ids      map[string]int64 // content hash -> file id
	seen     map[string]bool  // path + modTime dedup
	Versions []LoggedVersion
	Tags     map[int64][]string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		ids:  make(map[string]int64),
		seen: make(map[string]bool),
		Tags: make(map[int64][]string),
	}
}

func (m *MemoryIndex) LogVersion(name, path string, modTime time.Time, size int64, contentHash string, side prosync.Side) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.ids[contentHash]
	if !ok {
		id = int64(len(m.ids) + 1)
		m.ids[contentHash] = id
	}

	key := path + "|" + modTime.UTC().Format(time.RFC3339Nano)
	if m.seen[key] {
		return id, nil
	}
	m.seen[key] = true

	m.Versions = append(m.Versions, LoggedVersion{
		Name:        name,
		Path:        path,
		ModTime:     modTime,
		Size:        size,
		ContentHash: contentHash,
		Side:        side,
	})
	return id, nil
}

func (m *MemoryIndex) AddTag(fileID int64, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.Tags[fileID] {
		if t == tag {
			return nil
		}
	}
	m.Tags[fileID] = append(m.Tags[fileID], tag)
	return nil
}

// VersionCount returns how many distinct versions were logged.
func (m *MemoryIndex) VersionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Versions)
}

// Compile-time check
var _ prosync.Index = (*MemoryIndex)(nil)

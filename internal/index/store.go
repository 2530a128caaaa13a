// Package index implements the content-addressed version index: a SQLite
// catalog of every file observed during indexed syncs, deduplicated by
// content hash, with a version history per path, free-text tags, and an
// event log.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"prosync-go/internal/index/migrations"
	"prosync-go/internal/prosync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// busyTimeoutMillis is the lock-wait budget for index connections. The index
// lives inside the source tree, so a concurrent scan of that tree may be
// holding read locks.
const busyTimeoutMillis = 30000

// DefaultFileName is the index database file created inside the source root
// when a folder connection enables indexing without naming a path.
const DefaultFileName = "profiler_index.db"

// DefaultPath returns the index location for a source root when the
// connection does not configure one explicitly.
func DefaultPath(source string) string {
	return filepath.Join(source, DefaultFileName)
}

// SearchResult is one hit from Search: a version row plus how it matched.
type SearchResult struct {
	Name    string
	Path    string
	ModTime time.Time
	Match   string // "file" or "tag"
}

// Version is one recorded observation of a file's content at a path.
type Version struct {
	ID           int64
	FileID       int64
	Name         string
	Path         string
	ModTime      time.Time
	CreatedAt    time.Time
	VersionIndex int64
	SourceSide   string
}

// Store is the SQLite-backed version index.
type Store struct {
	db     *sql.DB
	path   string
	logger prosync.Logger
	clock  prosync.Clock
}

// Open opens (creating if necessary) the index database at path and runs
// pending migrations. logger and clock may be nil.
func Open(path string, logger prosync.Logger, clock prosync.Clock) (*Store, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating index %s: %w", path, err)
	}

	s := NewStoreFromDB(db, logger, clock)
	s.path = path
	return s, nil
}

// NewStoreFromDB wraps an existing connection whose schema is already in
// place. Used by tests that apply Schema to an in-memory database.
func NewStoreFromDB(db *sql.DB, logger prosync.Logger, clock prosync.Clock) *Store {
	if logger == nil {
		logger = prosync.NewNopLogger()
	}
	if clock == nil {
		clock = prosync.RealClock{}
	}
	return &Store{db: db, logger: logger, clock: clock}
}

// OpenConnection opens and configures a SQLite connection for the index.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// GetOrCreateFileID returns the id of the content-addressed file row for
// hash, inserting it on first sight.
func (s *Store) GetOrCreateFileID(contentHash string, size int64) (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM files WHERE content_hash = ?", contentHash).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("finding file by hash: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO files (content_hash, size, first_seen) VALUES (?, ?, ?)",
		contentHash, size, s.clock.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating file record: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new file id: %w", err)
	}
	return id, nil
}

// LogVersion records one observed copy of a file and returns the file id.
// Logging the same (path, modTime) pair twice is a no-op returning the
// existing file id. Version numbers count up per file, starting at 1.
func (s *Store) LogVersion(name, path string, modTime time.Time, size int64, contentHash string, side prosync.Side) (int64, error) {
	fileID, err := s.GetOrCreateFileID(contentHash, size)
	if err != nil {
		return 0, err
	}

	mtime := modTime.UTC()

	var existing int64
	err = s.db.QueryRow(
		"SELECT file_id FROM versions WHERE path = ? AND mtime = ?",
		path, mtime,
	).Scan(&existing)
	if err == nil {
		// Already recorded this exact observation.
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("checking for existing version: %w", err)
	}

	var next int64
	err = s.db.QueryRow(
		"SELECT COALESCE(MAX(version_index), 0) + 1 FROM versions WHERE file_id = ?",
		fileID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("computing version index: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO versions (file_id, name, path, mtime, created_at, version_index, source_side)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fileID, name, path, mtime, s.clock.Now().UTC(), next, string(side),
	)
	if err != nil {
		return 0, fmt.Errorf("recording version: %w", err)
	}
	return fileID, nil
}

// AddTag attaches a free-text label to a file id. Duplicates are suppressed.
func (s *Store) AddTag(fileID int64, tag string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO tags (file_id, tag) VALUES (?, ?)",
		fileID, tag,
	)
	if err != nil {
		return fmt.Errorf("adding tag: %w", err)
	}
	return nil
}

// AddEvent appends a row to the event log for a file.
func (s *Store) AddEvent(fileID int64, eventType, details string) error {
	_, err := s.db.Exec(
		"INSERT INTO events (file_id, event_type, details, ts) VALUES (?, ?, ?, ?)",
		fileID, eventType, details, s.clock.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("adding event: %w", err)
	}
	return nil
}

// searchLimit caps Search output; the CLI is not a pager.
const searchLimit = 500

// Search returns versions whose file name or tag contains term,
// case-insensitively. File-name matches come before tag matches.
func (s *Store) Search(term string) ([]SearchResult, error) {
	like := "%" + strings.ToLower(term) + "%"
	rows, err := s.db.Query(
		`SELECT v.name, v.path, v.mtime, 'file' AS match_type
		   FROM versions v
		  WHERE LOWER(v.name) LIKE ?
		 UNION
		 SELECT v.name, v.path, v.mtime, 'tag' AS match_type
		   FROM versions v
		   JOIN tags t ON t.file_id = v.file_id
		  WHERE LOWER(t.tag) LIKE ?
		 ORDER BY match_type, name
		 LIMIT ?`,
		like, like, searchLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Name, &r.Path, &r.ModTime, &r.Match); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	return results, nil
}

// Versions returns the recorded history for a file id, oldest first.
func (s *Store) Versions(fileID int64) ([]Version, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, name, path, mtime, created_at, version_index, source_side
		   FROM versions
		  WHERE file_id = ?
		  ORDER BY version_index`,
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.FileID, &v.Name, &v.Path, &v.ModTime, &v.CreatedAt, &v.VersionIndex, &v.SourceSide); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading versions: %w", err)
	}
	return versions, nil
}

// Path returns the database file path (empty for wrapped connections).
func (s *Store) Path() string {
	return s.path
}

// Close checkpoints the WAL if any, then closes the connection. A failed
// checkpoint is logged but does not fail the close.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(FULL)"); err != nil {
		s.logger.Warn("index wal checkpoint on close failed", "error", err)
	}
	return s.db.Close()
}

// Compile-time check that Store implements the executor's Index interface.
var _ prosync.Index = (*Store)(nil)

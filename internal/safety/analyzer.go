// Package safety inspects synchronized trees for transactional database
// files and derives the exclusion and mode policy that keeps a byte-level
// sync from copying them in an inconsistent state.
package safety

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver, used read-only for the WAL probe

	"prosync-go/internal/prosync"
)

// DatabaseType classifies a database file.
type DatabaseType string

const (
	TypeSQLite  DatabaseType = "sqlite"
	TypeAccess  DatabaseType = "ms_access"
	TypeUnknown DatabaseType = "unknown"
)

// sqliteMagic is the fixed 16-byte header of every SQLite format 3 file.
var sqliteMagic = []byte("SQLite format 3\x00")

// dbExtensions are the file extensions treated as transactional databases.
var dbExtensions = map[string]bool{
	".sqlite":  true,
	".sqlite3": true,
	".db":      true,
	".db3":     true,
	".mdb":     true, // MS Access
	".accdb":   true,
}

// accessLockExtensions mark MS Access lock files; these must never be copied.
var accessLockExtensions = map[string]bool{
	".ldb":    true, // Access 2003
	".laccdb": true, // Access 2007+
}

// accessExtensions are the MS Access database extensions.
var accessExtensions = map[string]bool{
	".mdb":   true,
	".accdb": true,
}

// generalUnsafePatterns are excluded whenever critical databases are found:
// lock files, temp files, OS metadata and cache directories.
var generalUnsafePatterns = []string{
	"*.lock", "*.lck", "*.tmp", ".DS_Store", "Thumbs.db", "__pycache__", "*.pyc",
}

// accessLockPatterns exclude MS Access lock files by glob.
var accessLockPatterns = []string{"*.ldb", "*.laccdb"}

// cacheDirNames are well-known cache directories skipped during scans.
var cacheDirNames = map[string]bool{"__pycache__": true}

// walProbeTimeout is the busy timeout (ms) for the read-only journal-mode probe.
const walProbeTimeout = 5000

// Record describes one database file found during a scan. Records are
// transient; they are recomputed on every scan and never persisted beyond
// the excluded-name summary written into the connection descriptor.
type Record struct {
	Path           string
	Name           string
	RelativePath   string
	Type           DatabaseType
	WALMode        bool
	HasWALSidecars bool
	SizeMB         float64
	Critical       bool
}

// Analyzer classifies database files and derives safe sync settings.
type Analyzer struct {
	logger prosync.Logger
	clock  prosync.Clock
}

// NewAnalyzer creates an Analyzer. logger and clock may be nil.
func NewAnalyzer(logger prosync.Logger, clock prosync.Clock) *Analyzer {
	if logger == nil {
		logger = prosync.NewNopLogger()
	}
	if clock == nil {
		clock = prosync.RealClock{}
	}
	return &Analyzer{logger: logger, clock: clock}
}

// IsDatabaseFile reports whether the file extension is a known
// transactional-database extension.
func IsDatabaseFile(path string) bool {
	return dbExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsAccessLockFile reports whether the file is an MS Access lock file.
func IsAccessLockFile(path string) bool {
	return accessLockExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSQLiteDatabase reports whether the file starts with the SQLite format 3
// magic header. More reliable than the extension alone. A missing or
// unreadable file yields false, not an error.
func IsSQLiteDatabase(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, sqliteMagic)
}

// CheckWALMode reports whether a SQLite database runs in WAL journal mode.
// The database is opened read-only so the probe neither creates lock files
// nor mutates the database. Any failure yields false.
func (a *Analyzer) CheckWALMode(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d", path, walProbeTimeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return false
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return false
	}
	return strings.EqualFold(mode, "wal")
}

// ScanDirectory walks root and returns one Record per database-extension
// file, skipping hidden and cache directories. A missing root yields an
// empty list; per-file analysis failures are logged and skipped.
func (a *Analyzer) ScanDirectory(root string) []Record {
	var records []Record
	if _, err := os.Stat(root); err != nil {
		return records
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			a.logger.Warn("safety scan entry skipped", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || cacheDirNames[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsDatabaseFile(path) {
			return nil
		}
		records = append(records, a.analyzeFile(path, root))
		return nil
	})
	if err != nil {
		a.logger.Error("safety scan failed", "root", root, "error", err)
	}
	return records
}

// analyzeFile classifies a single database file.
func (a *Analyzer) analyzeFile(path, root string) Record {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rec := Record{
		Path:         path,
		Name:         filepath.Base(path),
		RelativePath: filepath.ToSlash(rel),
		Type:         TypeUnknown,
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case IsSQLiteDatabase(path):
		rec.Type = TypeSQLite
		rec.WALMode = a.CheckWALMode(path)
		rec.HasWALSidecars = fileExists(path+"-wal") || fileExists(path+"-shm")
		rec.Critical = rec.WALMode || rec.HasWALSidecars
	case accessExtensions[ext]:
		rec.Type = TypeAccess
	}

	if info, err := os.Stat(path); err == nil {
		rec.SizeMB = float64(info.Size()) / (1024 * 1024)
	} else {
		a.logger.Warn("database size unavailable", "path", path, "error", err)
	}
	return rec
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

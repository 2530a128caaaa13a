package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prosync-go/internal/prosync"
)

// ApplySafeSettingsForFolder patches a folder connection so critical
// databases stay out of the folder sync. For every critical record it
// excludes the database file name plus its -wal/-shm/-journal sidecars; when
// any criticals exist it also adds the general unsafe patterns, and when MS
// Access databases are present it excludes their lock-file globs. Summary
// metadata is written back onto the connection.
//
// Idempotent: a second run on the already-patched connection reports
// changed=false and (under the same clock) leaves the connection identical.
func (a *Analyzer) ApplySafeSettingsForFolder(conn *prosync.FolderConnection, records []Record) (warnings []string, excluded []Record, changed bool) {
	var criticals []Record
	for _, rec := range records {
		if rec.Critical {
			criticals = append(criticals, rec)
		}
	}

	if len(criticals) > 0 {
		for _, rec := range criticals {
			// The database file itself, then its WAL sidecars:
			// -wal write-ahead log, -shm shared memory, -journal rollback journal.
			for _, pattern := range []string{rec.Name, rec.Name + "-wal", rec.Name + "-shm", rec.Name + "-journal"} {
				if !conn.HasExcludePattern(pattern) {
					conn.ExcludePatterns = append(conn.ExcludePatterns, pattern)
					changed = true
				}
			}
			excluded = append(excluded, rec)
		}

		for _, pattern := range generalUnsafePatterns {
			if !conn.HasExcludePattern(pattern) {
				conn.ExcludePatterns = append(conn.ExcludePatterns, pattern)
				changed = true
			}
		}

		warnings = append(warnings,
			fmt.Sprintf("%d critical database(s) excluded from folder sync", len(excluded)),
			"create file connections to sync excluded databases individually")

		autoExcluded := make([]prosync.ExcludedDatabase, len(excluded))
		for i, rec := range excluded {
			autoExcluded[i] = prosync.ExcludedDatabase{
				Name:         rec.Name,
				SizeMB:       rec.SizeMB,
				Type:         string(rec.Type),
				WALMode:      rec.WALMode,
				RelativePath: rec.RelativePath,
			}
		}
		conn.AutoExcluded = autoExcluded
	}

	hasAccess := false
	for _, rec := range records {
		if rec.Type == TypeAccess {
			hasAccess = true
			break
		}
	}
	if hasAccess {
		accessChanged := false
		for _, pattern := range accessLockPatterns {
			if !conn.HasExcludePattern(pattern) {
				conn.ExcludePatterns = append(conn.ExcludePatterns, pattern)
				changed = true
				accessChanged = true
			}
		}
		if accessChanged {
			warnings = append(warnings, "MS Access lock files excluded (*.ldb, *.laccdb)")
		}
	}

	if len(records) > 0 {
		totalMB := 0.0
		for _, rec := range records {
			totalMB += rec.SizeMB
		}
		conn.Safety = &prosync.SafetyAnalysis{
			DatabasesFound:    len(records),
			CriticalDatabases: len(criticals),
			ExcludedDatabases: len(excluded),
			TotalDBSizeMB:     totalMB,
			LastCheck:         a.clock.Now(),
			AutoConfigured:    true,
		}
	}

	return warnings, excluded, changed
}

// ApplySafeSettingsForFile patches a single-file connection whose source is
// a transactional database: WAL-mode SQLite sources get a forced checkpoint
// before sync, and any SQLite or Access source is forced to one-way with
// autosync disabled, since an unattended two-way sync can clobber a live
// database. Non-database sources are left untouched.
//
// Idempotent: a second run reports changed=false.
func (a *Analyzer) ApplySafeSettingsForFile(conn *prosync.FileConnection) (warnings []string, changed bool) {
	source := conn.SourceFile
	if source == "" || !fileExists(source) {
		return nil, false
	}
	if !IsDatabaseFile(source) {
		return nil, false
	}

	dbType := TypeUnknown
	walMode := false
	critical := false

	switch {
	case IsSQLiteDatabase(source):
		dbType = TypeSQLite
		walMode = a.CheckWALMode(source)
		critical = walMode
		if walMode && !conn.CheckpointBeforeSync {
			conn.CheckpointBeforeSync = true
			warnings = append(warnings, "WAL checkpoint before sync enabled")
			changed = true
		}
	case accessExtensions[strings.ToLower(filepath.Ext(source))]:
		dbType = TypeAccess
	}

	if critical || dbType == TypeSQLite || dbType == TypeAccess {
		if conn.Mode != prosync.ModeOneWay {
			conn.Mode = prosync.ModeOneWay
			warnings = append(warnings, "mode forced to one_way (critical database)")
			changed = true
		}
		if conn.AutoSync.Enabled {
			conn.AutoSync.Enabled = false
			conn.AutoSync.Reason = "manual sync recommended for database files"
			warnings = append(warnings, "autosync disabled (manual sync recommended)")
			changed = true
		}
	}

	sizeMB := 0.0
	if info, err := os.Stat(source); err == nil {
		sizeMB = float64(info.Size()) / (1024 * 1024)
	}
	conn.Analysis = &prosync.FileAnalysis{
		Filename:          filepath.Base(source),
		Type:              string(dbType),
		SizeMB:            sizeMB,
		WALMode:           walMode,
		Critical:          critical,
		CheckpointEnabled: conn.CheckpointBeforeSync,
		LastCheck:         a.clock.Now(),
	}

	return warnings, changed
}

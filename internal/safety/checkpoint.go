package safety

import (
	"database/sql"
	"fmt"
	"os"

	"prosync-go/internal/prosync"
)

// checkpointBusyTimeout is the lock-wait budget (ms) for the checkpoint
// connection. Generous, because the database may be in active use.
const checkpointBusyTimeout = 30000

// Checkpointer forces WAL-mode SQLite databases to merge their write-ahead
// log into the main file before it is copied.
type Checkpointer struct {
	logger prosync.Logger
}

// NewCheckpointer creates a Checkpointer. logger may be nil.
func NewCheckpointer(logger prosync.Logger) *Checkpointer {
	if logger == nil {
		logger = prosync.NewNopLogger()
	}
	return &Checkpointer{logger: logger}
}

// Checkpoint issues a full WAL checkpoint: block new writers, merge all WAL
// content into the main file, truncate the WAL, release locks. From the
// caller's perspective it is one atomic operation. A failure is returned,
// never panicked; callers are expected to proceed with a warning, since a
// missed checkpoint only means the copy omits very recent writes.
func (c *Checkpointer) Checkpoint(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("database not found: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", path, checkpointBusyTimeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA wal_checkpoint(FULL)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}

	c.logger.Info("wal checkpoint complete", "path", path)
	return nil
}

// Compile-time check that Checkpointer implements prosync.Checkpointer.
var _ prosync.Checkpointer = (*Checkpointer)(nil)

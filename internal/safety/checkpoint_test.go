package safety_test

import (
	"os"
	"path/filepath"
	"testing"

	"prosync-go/internal/safety"
)

func writeFileOrFatal(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
}

func TestCheckpointer_Checkpoint(t *testing.T) {
	t.Run("checkpoints a wal database", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "shop.db")
		createSQLiteDB(t, dbPath, true)

		c := safety.NewCheckpointer(nil)
		if err := c.Checkpoint(dbPath); err != nil {
			t.Fatalf("Checkpoint() error = %v", err)
		}
	})

	t.Run("is harmless on a rollback-journal database", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "plain.db")
		createSQLiteDB(t, dbPath, false)

		c := safety.NewCheckpointer(nil)
		if err := c.Checkpoint(dbPath); err != nil {
			t.Fatalf("Checkpoint() error = %v", err)
		}
	})

	t.Run("missing database is an error", func(t *testing.T) {
		t.Parallel()
		c := safety.NewCheckpointer(nil)
		if err := c.Checkpoint(filepath.Join(t.TempDir(), "missing.db")); err == nil {
			t.Error("Checkpoint() error = nil, want error for missing file")
		}
	})
}

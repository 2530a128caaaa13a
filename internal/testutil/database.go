package testutil

import (
	"testing"

	"prosync-go/internal/index"
)

// NewTestStore creates a new in-memory version index with schema applied.
// The store is automatically closed when the test completes.
func NewTestStore(t *testing.T) *index.Store {
	t.Helper()

	sqlDB, err := index.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open index database: %v", err)
	}

	if _, err := sqlDB.Exec(index.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	store := index.NewStoreFromDB(sqlDB, nil, FixedClock())

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

package testutil

import (
	"context"
	"testing"

	"github.com/nhle/habitlog/internal/store"
)

// NewTestRepository creates an in-memory SQLiteRepository with all
// migrations applied. It is closed automatically when the test ends.
func NewTestRepository(t *testing.T) *store.SQLiteRepository {
	t.Helper()

	r, err := store.NewSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("creating test repository: %v", err)
	}

	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("closing test repository: %v", err)
		}
	})

	return r
}

// NewTestEntryStore creates an EntryStore over a fresh in-memory
// repository.
func NewTestEntryStore(t *testing.T) *store.EntryStore {
	t.Helper()

	s, err := store.NewEntryStore(context.Background(), NewTestRepository(t))
	if err != nil {
		t.Fatalf("creating test entry store: %v", err)
	}
	return s
}

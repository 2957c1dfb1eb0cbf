package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/taskchat/taskchat/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied
// and closes it when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedUser inserts an account named after the given id and returns the
// stored user id, so tests that only need an owner do not repeat signup
// plumbing.
func SeedUser(t *testing.T, s *store.SQLiteStore, n int) int64 {
	t.Helper()

	id, err := s.CreateUser(context.Background(),
		fmt.Sprintf("User %d", n),
		fmt.Sprintf("user%d@example.com", n),
		"not-a-real-hash",
	)
	if err != nil {
		t.Fatalf("seeding user %d: %v", n, err)
	}
	return id
}

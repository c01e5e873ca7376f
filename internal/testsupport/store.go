package testsupport

import (
	"context"
	"testing"

	"camclip/internal/config"
	"camclip/internal/store"
)

// MustOpenStore opens a ledger store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewJob creates a ledger row for tests using the provided store.
func NewJob(t testing.TB, st *store.Store, jobID, camera, method string) {
	t.Helper()

	if err := st.CreateJob(context.Background(), jobID, camera, method); err != nil {
		t.Fatalf("store.CreateJob: %v", err)
	}
}

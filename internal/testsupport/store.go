package testsupport

import (
	"context"
	"testing"

	"redub/internal/config"
	"redub/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a render job for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, kind queue.Kind, label string) *queue.Job {
	t.Helper()

	job, err := store.Add(context.Background(), kind, label, "", "")
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return job
}

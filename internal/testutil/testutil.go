// Package testutil provides shared test helpers for setting up backends and stores.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/store"
)

// Logger returns a logger that discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Backend opens an in-memory badger backend that is automatically closed.
func Backend(t *testing.T) storage.Backend {
	t.Helper()
	b, err := storage.OpenBadger("", Logger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

// Store creates an empty store with a live search index over an
// in-memory backend.
func Store(t *testing.T) (*store.Store, *search.Index) {
	t.Helper()
	ix := search.NewIndex()
	st, err := store.New(Backend(t), ix, Logger())
	if err != nil {
		t.Fatal(err)
	}
	return st, ix
}

// Seed upserts a minimal note and returns the stored copy.
func Seed(t *testing.T, st *store.Store, title, body string, tags ...string) *models.Note {
	t.Helper()
	n, err := st.Upsert(&models.Note{Title: title, Body: body, Tags: tags})
	if err != nil {
		t.Fatalf("seed %q: %v", title, err)
	}
	return n
}

// Package testutil provides shared test helpers for setting up handoff roots and journals.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/handoff/internal/handoff"
	"github.com/starford/handoff/internal/journal"
	"github.com/starford/handoff/internal/storage"
)

// FixedTime is the clock value used by TestEngine.
var FixedTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

// TestJournal creates a temporary SQLite journal that is automatically closed.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRoot creates a temporary handoff root directory with a storage.Provider.
func TestRoot(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestEngine returns an initialized engine over an in-memory store with a
// fixed clock. Extra options are applied after the defaults.
func TestEngine(t *testing.T, opts ...handoff.Option) (*handoff.Engine, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	base := []handoff.Option{
		handoff.WithRoot("handoff-system"),
		handoff.WithClock(func() time.Time { return FixedTime }),
		handoff.WithLogger(DiscardLogger()),
	}
	eng := handoff.NewEngine(store, append(base, opts...)...)
	if err := eng.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	return eng, store
}

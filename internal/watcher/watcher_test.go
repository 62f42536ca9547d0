package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/starford/handoff/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(kind, id, location string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+location+"/"+id)
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.events, event)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T) (string, *recorder) {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"active", "archive"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "active", "old.md"), []byte("# Old"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, root, 20*time.Millisecond, testutil.DiscardLogger(), rec.add)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return root, rec
}

func TestWatch_CreateAndUpdate(t *testing.T) {
	root, rec := startWatch(t)
	p := filepath.Join(root, "active", "2024-01-15-a.md")

	_ = os.WriteFile(p, []byte("# New"), 0o644)
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("created:active/2024-01-15-a")
	}, "create not reported")

	_ = os.WriteFile(p, []byte("# New\nmore"), 0o644)
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("updated:active/2024-01-15-a")
	}, "update not reported")
}

func TestWatch_KnownFileIsUpdate(t *testing.T) {
	root, rec := startWatch(t)

	_ = os.WriteFile(filepath.Join(root, "active", "old.md"), []byte("# Old edited"), 0o644)
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("updated:active/old")
	}, "edit of pre-existing file not reported as update")
	if rec.has("created:active/old") {
		t.Error("pre-existing file reported as created")
	}
}

func TestWatch_MoveToArchive(t *testing.T) {
	root, rec := startWatch(t)

	err := os.Rename(filepath.Join(root, "active", "old.md"), filepath.Join(root, "archive", "old.md"))
	if err != nil {
		t.Fatal(err)
	}
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("deleted:active/old") && rec.has("created:archived/old")
	}, "archive move not reported")
}

func TestWatch_IgnoresTempAndOtherFiles(t *testing.T) {
	root, rec := startWatch(t)

	_ = os.WriteFile(filepath.Join(root, "active", ".handoff-tmp-123"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "active", "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "stray.md"), []byte("x"), 0o644)

	time.Sleep(200 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("events = %d, want 0", n)
	}
}

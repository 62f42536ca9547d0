// Package watcher reports handoff documents created, edited or removed on
// disk, including edits made outside the engine.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/handoff/internal/handoff"
)

// Callback receives one settled change. kind is "created", "updated" or
// "deleted"; location is "active" or "archived".
type Callback func(kind, id, location string)

// DefaultDebounce is the settle time used when Watch gets zero.
const DefaultDebounce = 150 * time.Millisecond

type docKey struct {
	location string
	id       string
}

// Watch observes the active and archive directories under root until ctx is
// cancelled. Bursts of filesystem events for a document are coalesced and
// classified by comparing the file's presence with what was last seen, so
// atomic temp-file renames surface as a single created or updated event.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, cb Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: new: %w", err)
	}
	defer w.Close()

	locations := map[string]string{
		filepath.Join(root, handoff.ActiveDir):  handoff.StatusActive,
		filepath.Join(root, handoff.ArchiveDir): handoff.StatusArchived,
	}

	known := make(map[docKey]bool)
	for dir, location := range locations {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watcher: add %s: %w", dir, err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("watcher: scan %s: %w", dir, err)
		}
		for _, e := range entries {
			if id, ok := docID(e.Name()); ok && !e.IsDir() {
				known[docKey{location: location, id: id}] = true
			}
		}
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[docKey]string)
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
			return
		}
		timer.Reset(debounce)
	}

	flush := func() {
		for key, path := range pending {
			_, statErr := os.Stat(path)
			exists := statErr == nil
			kind := ""
			switch {
			case exists && known[key]:
				kind = "updated"
			case exists:
				kind = "created"
			case known[key]:
				kind = "deleted"
			}
			if exists {
				known[key] = true
			} else {
				delete(known, key)
			}
			if kind == "" {
				continue
			}
			logger.Debug("watcher: change",
				slog.String("handoff_id", key.id),
				slog.String("location", key.location),
				slog.String("op", kind))
			if cb != nil {
				cb(kind, key.id, key.location)
			}
		}
		clear(pending)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			location, watched := locations[filepath.Dir(ev.Name)]
			if !watched || ev.Op == fsnotify.Chmod {
				continue
			}
			id, ok := docID(filepath.Base(ev.Name))
			if !ok {
				continue
			}
			pending[docKey{location: location, id: id}] = ev.Name
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// docID returns the handoff id for a document file name. Hidden and
// temporary files are ignored.
func docID(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
		return "", false
	}
	return strings.TrimSuffix(name, ".md"), true
}

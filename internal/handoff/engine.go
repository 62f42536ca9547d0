// Package handoff implements the handoff document engine: bootstrap,
// create, read, update, complete, archive and list over a storage.Provider.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/handoff/internal/apperr"
	"github.com/starford/handoff/internal/checksum"
	"github.com/starford/handoff/internal/document"
	"github.com/starford/handoff/internal/journal"
	"github.com/starford/handoff/internal/storage"
)

// Directory layout under the handoff root.
const (
	ActiveDir    = "active"
	ArchiveDir   = "archive"
	TemplatesDir = "templates"
)

// Recorder persists lifecycle events. *journal.DB satisfies it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
	History(ctx context.Context, handoffID string, limit int) ([]journal.Entry, error)
}

// Engine owns every handoff document operation.
type Engine struct {
	store    storage.Provider
	root     string
	now      func() time.Time
	newID    func(date string) string
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRoot sets the root used when reporting file paths in results.
func WithRoot(root string) Option {
	return func(e *Engine) { e.root = root }
}

// WithClock overrides the time source used for archive dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides handoff id generation.
func WithIDGenerator(fn func(date string) string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithRecorder attaches a lifecycle journal.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over store.
func NewEngine(store storage.Provider, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    time.Now,
		newID:  NewID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewID returns "<date>-<suffix>" where suffix is a UUIDv7 in compact hex,
// so ids sort by creation time within a date.
func NewID(date string) string {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return date + "-" + strings.ReplaceAll(u.String(), "-", "")
}

// Initialize creates the directory layout and writes missing templates.
// Existing templates are left untouched.
func (e *Engine) Initialize(ctx context.Context) error {
	for _, dir := range []string{ActiveDir, ArchiveDir, TemplatesDir} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.store.EnsureDir(dir); err != nil {
			return fmt.Errorf("handoff: init %s: %w", dir, err)
		}
	}

	templates := []struct{ file, content string }{
		{document.StandardTemplateFile, document.StandardTemplate},
		{document.QuickTemplateFile, document.QuickTemplate},
	}
	for _, t := range templates {
		p := path.Join(TemplatesDir, t.file)
		ok, err := e.store.Exists(p)
		if err != nil {
			return fmt.Errorf("handoff: init template %s: %w", t.file, err)
		}
		if ok {
			continue
		}
		if err := e.store.Write(p, []byte(t.content)); err != nil {
			return fmt.Errorf("handoff: write template %s: %w", t.file, err)
		}
		e.logger.Debug("template written", slog.String("path", p))
	}

	e.logger.Info("Handoff system initialized", slog.String("root", e.root))
	return nil
}

func activePath(id string) string  { return path.Join(ActiveDir, id+".md") }
func archivePath(id string) string { return path.Join(ArchiveDir, id+".md") }

// stagingPath is hidden and lacks the .md suffix, so listings and the
// watcher skip it.
func stagingPath(id string) string { return path.Join(ArchiveDir, "."+id+".archiving") }

// discard removes a partially archived file, logging instead of failing.
func (e *Engine) discard(p string) {
	if err := e.store.Delete(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.logger.Warn("handoff: cleanup failed", slog.String("path", p), slog.String("error", err.Error()))
	}
}

// displayPath joins a store path onto the configured root for results.
func (e *Engine) displayPath(rel string) string {
	return filepath.Join(e.root, filepath.FromSlash(rel))
}

func (e *Engine) loadTemplate(typ string) (string, error) {
	p := path.Join(TemplatesDir, document.TemplateFile(typ))
	data, err := e.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("handoff: template %s: %w", typ, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("handoff: load template %s: %w", typ, err)
	}
	return string(data), nil
}

// readActive loads an active document.
func (e *Engine) readActive(id string) (string, error) {
	data, err := e.store.Read(activePath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("handoff %s: %w", id, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("handoff: read %s: %w", id, err)
	}
	return string(data), nil
}

// record writes a journal entry. Journal failures never fail the operation.
func (e *Engine) record(ctx context.Context, id, action, location, content, detail string) {
	if e.recorder == nil {
		return
	}
	err := e.recorder.Record(ctx, journal.Entry{
		HandoffID: id,
		Action:    action,
		Location:  location,
		Checksum:  checksum.Sum([]byte(content)),
		Detail:    detail,
		CreatedAt: e.now(),
	})
	if err != nil {
		e.logger.Warn("journal record failed",
			slog.String("handoff_id", id),
			slog.String("action", action),
			slog.String("error", err.Error()))
	}
}

package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/handoff/internal/apperr"
	"github.com/starford/handoff/internal/document"
	"github.com/starford/handoff/internal/journal"
)

// CreateResult is returned by Create.
type CreateResult struct {
	HandoffID string `json:"handoff_id"`
	Filepath  string `json:"filepath"`
	Status    string `json:"status"`
}

// ReadResult is the full-format read response.
type ReadResult struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// UpdateResult is returned by Update.
type UpdateResult struct {
	Status           string   `json:"status"`
	ModifiedSections []string `json:"modifiedSections"`
	SkippedSections  []string `json:"skippedSections,omitempty"`
}

// CompleteResult is returned by Complete.
type CompleteResult struct {
	Status   string `json:"status"`
	Archived bool   `json:"archived"`
}

// ArchiveResult is returned by Archive.
type ArchiveResult struct {
	Status      string `json:"status"`
	ArchivePath string `json:"archivePath"`
}

// HistoryResult is returned by History.
type HistoryResult struct {
	HandoffID string          `json:"handoff_id"`
	Entries   []journal.Entry `json:"entries"`
}

// Create instantiates a template and writes it to the active directory.
// Ids are not checked against existing files.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tpl, err := e.loadTemplate(p.Type)
	if err != nil {
		return nil, err
	}

	content := document.Populate(tpl, templateData(p.InitialData))
	id := e.newID(p.InitialData.Date)
	rel := activePath(id)

	if err := e.store.EnsureDir(ActiveDir); err != nil {
		return nil, fmt.Errorf("handoff: ensure %s: %w", ActiveDir, err)
	}
	if err := e.store.Write(rel, []byte(content)); err != nil {
		return nil, fmt.Errorf("handoff: write %s: %w", id, err)
	}

	e.logger.Info("handoff created", slog.String("handoff_id", id), slog.String("type", p.Type))
	e.record(ctx, id, "created", StatusActive, content, p.Type)

	return &CreateResult{
		HandoffID: id,
		Filepath:  e.displayPath(rel),
		Status:    "created",
	}, nil
}

func templateData(d InitialData) document.TemplateData {
	td := document.TemplateData{
		Date:           d.Date,
		Time:           d.Time,
		WorkingOn:      d.CurrentState.WorkingOn,
		Status:         d.CurrentState.Status,
		NextStep:       d.CurrentState.NextStep,
		ProjectContext: d.ProjectContext,
	}
	if details := d.EnvironmentStatus.Details; details != nil {
		for pair := details.Oldest(); pair != nil; pair = pair.Next() {
			td.Environment = append(td.Environment, document.KeyValue{Key: pair.Key, Value: pair.Value})
		}
	}
	return td
}

// Read returns the content of an active document with its header metadata.
func (e *Engine) Read(ctx context.Context, id string) (*ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := e.readActive(id)
	if err != nil {
		return nil, err
	}
	return &ReadResult{
		Content:  content,
		Metadata: document.Metadata(content),
	}, nil
}

// Summary returns the section→bullets summary of an active document.
func (e *Engine) Summary(ctx context.Context, id string) (*document.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := e.readActive(id)
	if err != nil {
		return nil, err
	}
	return document.Summarize(content), nil
}

// Update applies section updates in order and rewrites the active document.
// Sections without a matching heading are reported as skipped.
func (e *Engine) Update(ctx context.Context, p UpdateParams) (*UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := e.readActive(p.HandoffID)
	if err != nil {
		return nil, err
	}

	updates := make([]document.Update, len(p.Updates))
	for i, u := range p.Updates {
		updates[i] = document.Update{Section: u.Section, Content: u.Content}
	}
	updated, applied, skipped := document.ApplyUpdates(content, updates)

	if err := e.store.Write(activePath(p.HandoffID), []byte(updated)); err != nil {
		return nil, fmt.Errorf("handoff: write %s: %w", p.HandoffID, err)
	}

	if len(skipped) > 0 {
		e.logger.Debug("sections not found",
			slog.String("handoff_id", p.HandoffID),
			slog.String("sections", strings.Join(skipped, ",")))
	}
	e.record(ctx, p.HandoffID, "updated", StatusActive, updated, strings.Join(applied, ","))

	if applied == nil {
		applied = []string{}
	}
	return &UpdateResult{
		Status:           "updated",
		ModifiedSections: applied,
		SkippedSections:  skipped,
	}, nil
}

// Complete records completion progress and, when an archive reason is
// given, archives the document as a success tagged "completed".
func (e *Engine) Complete(ctx context.Context, p CompleteParams) (*CompleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := e.readActive(p.HandoffID)
	if err != nil {
		return nil, err
	}

	fields := document.NewFields()
	fields.Set("completionTime", p.CompletionData.EndTime)
	fields.Set("completedItems", p.CompletionData.Progress)
	updated, _, _ := document.ApplyUpdates(content, []document.Update{
		{Section: document.SectionProgress, Content: fields},
	})

	if err := e.store.Write(activePath(p.HandoffID), []byte(updated)); err != nil {
		return nil, fmt.Errorf("handoff: write %s: %w", p.HandoffID, err)
	}

	detail, _ := json.Marshal(map[string]any{
		"endTime":   p.CompletionData.EndTime,
		"nextSteps": p.CompletionData.NextSteps,
	})
	e.record(ctx, p.HandoffID, "completed", StatusActive, updated, string(detail))

	if p.CompletionData.ArchiveReason == "" {
		return &CompleteResult{Status: "completed", Archived: false}, nil
	}

	if _, err := e.Archive(ctx, ArchiveParams{
		HandoffID: p.HandoffID,
		Metadata: ArchiveMetadata{
			Reason:           p.CompletionData.ArchiveReason,
			Tags:             []string{"completed"},
			CompletionStatus: document.CompletionSuccess,
		},
	}); err != nil {
		return nil, err
	}
	return &CompleteResult{Status: "completed", Archived: true}, nil
}

// Archive stamps the archive information block into an active document and
// moves it to the archive directory. The stamped content is written in place
// first, then renamed, so the document never exists in both directories.
func (e *Engine) Archive(ctx context.Context, p ArchiveParams) (*ArchiveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := e.readActive(p.HandoffID)
	if err != nil {
		return nil, err
	}

	updated := document.InsertArchiveBlock(content, document.ArchiveInfo{
		Date:             e.now(),
		Reason:           p.Metadata.Reason,
		CompletionStatus: p.Metadata.CompletionStatus,
		Tags:             p.Metadata.Tags,
	})

	src, dst := activePath(p.HandoffID), archivePath(p.HandoffID)
	if err := e.store.EnsureDir(ArchiveDir); err != nil {
		return nil, fmt.Errorf("handoff: ensure %s: %w", ArchiveDir, err)
	}

	// The active document stays untouched until the archived copy exists.
	staged := stagingPath(p.HandoffID)
	if err := e.store.Write(staged, []byte(updated)); err != nil {
		return nil, fmt.Errorf("handoff: stamp %s: %w", p.HandoffID, err)
	}
	if err := e.store.Move(staged, dst); err != nil {
		e.discard(staged)
		return nil, fmt.Errorf("handoff: archive %s: %w", p.HandoffID, err)
	}
	if err := e.store.Delete(src); err != nil {
		e.discard(dst)
		return nil, fmt.Errorf("handoff: remove active %s: %w", p.HandoffID, err)
	}

	e.logger.Info("handoff archived",
		slog.String("handoff_id", p.HandoffID),
		slog.String("completion_status", p.Metadata.CompletionStatus))
	e.record(ctx, p.HandoffID, "archived", StatusArchived, updated, p.Metadata.Reason)

	return &ArchiveResult{
		Status:      "archived",
		ArchivePath: e.displayPath(dst),
	}, nil
}

// History returns the journal entries of a document, newest first.
func (e *Engine) History(ctx context.Context, p HistoryParams) (*HistoryResult, error) {
	if e.recorder == nil {
		return nil, fmt.Errorf("handoff: journal: %w", apperr.ErrDisabled)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, err := e.recorder.History(ctx, p.HandoffID, limit)
	if err != nil {
		return nil, fmt.Errorf("handoff: history %s: %w", p.HandoffID, err)
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return &HistoryResult{HandoffID: p.HandoffID, Entries: entries}, nil
}

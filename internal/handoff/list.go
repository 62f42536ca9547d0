package handoff

import (
	"context"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/starford/handoff/internal/document"
)

// ListResult is returned by List.
type ListResult struct {
	Handoffs []document.Info `json:"handoffs"`
}

// location pairs a directory with the status reported for documents in it.
type location struct {
	dir    string
	status string
}

func locationsFor(status string) []location {
	active := location{dir: ActiveDir, status: StatusActive}
	archived := location{dir: ArchiveDir, status: StatusArchived}
	switch status {
	case StatusAll:
		return []location{active, archived}
	case StatusArchived:
		return []location{archived}
	default:
		return []location{active}
	}
}

// List reads every document in the selected directories, applies the
// filters and orders the result by priority, highest first. Unreadable
// directories and files are logged and skipped.
func (e *Engine) List(ctx context.Context, p ListParams) (*ListResult, error) {
	handoffs := []document.Info{}

	for _, loc := range locationsFor(p.Status) {
		names, err := e.store.List(loc.dir)
		if err != nil {
			e.logger.Warn("list: read directory failed",
				slog.String("dir", loc.dir),
				slog.String("error", err.Error()))
			continue
		}

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !strings.HasSuffix(name, ".md") {
				continue
			}
			data, err := e.store.Read(path.Join(loc.dir, name))
			if err != nil {
				e.logger.Warn("list: read failed",
					slog.String("path", path.Join(loc.dir, name)),
					slog.String("error", err.Error()))
				continue
			}
			content := string(data)

			info := document.ParseInfo(content)
			info.ID = strings.TrimSuffix(name, ".md")
			info.Status = loc.status

			if !matches(p, info, content) {
				continue
			}
			handoffs = append(handoffs, info)
		}
	}

	slices.SortStableFunc(handoffs, func(a, b document.Info) int {
		return b.Priority - a.Priority
	})
	return &ListResult{Handoffs: handoffs}, nil
}

func matches(p ListParams, info document.Info, content string) bool {
	if p.Type != "" && info.Type != p.Type {
		return false
	}
	f := p.Filters
	if f == nil {
		return true
	}
	if f.DateRange != nil && !document.InDateRange(info.Date, f.DateRange.Start, f.DateRange.End) {
		return false
	}
	if f.HasIssues != nil && *f.HasIssues && !document.HasIssues(content) {
		return false
	}
	// An explicit empty tag list matches nothing.
	if f.Tags != nil && !document.HasAnyTag(content, f.Tags) {
		return false
	}
	return true
}

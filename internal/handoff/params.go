package handoff

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/handoff/internal/document"
)

// Read formats.
const (
	FormatFull    = "full"
	FormatSummary = "summary"
)

// List status selectors.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusAll      = "all"
)

func anyOf(values ...string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// pathSafe rejects values that could escape the handoff directories when
// used as a file name.
var pathSafe = validation.By(func(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return errors.New("must not contain path separators or '..'")
	}
	return nil
})

// ReadParams are the parameters of read_handoff.
type ReadParams struct {
	HandoffID string `json:"handoff_id"`
	Format    string `json:"format,omitempty"`
}

// Validate validates the read parameters.
func (p *ReadParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.HandoffID, validation.Required, pathSafe),
		validation.Field(&p.Format, validation.In(anyOf(FormatFull, FormatSummary)...)),
	)
}

// CreateParams are the parameters of create_handoff.
type CreateParams struct {
	Type        string      `json:"type"`
	InitialData InitialData `json:"initialData"`
}

// Validate validates the create parameters.
func (p *CreateParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Type, validation.Required, validation.In(anyOf(document.TypeStandard, document.TypeQuick)...)),
		validation.Field(&p.InitialData),
	)
}

// InitialData seeds a new document from a template.
type InitialData struct {
	Date              string            `json:"date"`
	Time              string            `json:"time"`
	CurrentState      CurrentState      `json:"currentState"`
	ProjectContext    string            `json:"projectContext,omitempty"`
	EnvironmentStatus EnvironmentStatus `json:"environmentStatus"`
}

// Validate validates the initial data.
func (d InitialData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Date, validation.Required, pathSafe),
		validation.Field(&d.Time, validation.Required),
		validation.Field(&d.CurrentState),
		validation.Field(&d.EnvironmentStatus),
	)
}

// CurrentState describes the work in flight.
type CurrentState struct {
	WorkingOn string `json:"workingOn"`
	Status    string `json:"status"`
	NextStep  string `json:"nextStep"`
}

// Validate validates the current state.
func (s CurrentState) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.WorkingOn, validation.Required),
		validation.Field(&s.Status, validation.Required),
		validation.Field(&s.NextStep, validation.Required),
	)
}

// EnvironmentStatus maps environment component names to a status marker,
// in request order.
type EnvironmentStatus struct {
	Details *orderedmap.OrderedMap[string, string] `json:"details"`
}

// Validate validates the environment status markers.
func (s EnvironmentStatus) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Details, validation.NotNil, validation.By(func(any) error {
			if s.Details == nil {
				return nil
			}
			for pair := s.Details.Oldest(); pair != nil; pair = pair.Next() {
				switch pair.Value {
				case document.StatusOK, document.StatusWarning, document.StatusError:
				default:
					return fmt.Errorf("%s: must be one of %s, %s, %s", pair.Key,
						document.StatusOK, document.StatusWarning, document.StatusError)
				}
			}
			return nil
		})),
	)
}

// SectionUpdate rewrites one section with structured content.
type SectionUpdate struct {
	Section string           `json:"section"`
	Content *document.Fields `json:"content"`
}

// Validate validates the section update.
func (u SectionUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Section, validation.Required, validation.In(anyOf(document.Sections...)...)),
		validation.Field(&u.Content, validation.NotNil),
	)
}

// UpdateParams are the parameters of update_handoff.
type UpdateParams struct {
	HandoffID string          `json:"handoff_id"`
	Updates   []SectionUpdate `json:"updates"`
}

// Validate validates the update parameters.
func (p *UpdateParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.HandoffID, validation.Required, pathSafe),
		validation.Field(&p.Updates, validation.NotNil),
	)
}

// CompleteParams are the parameters of complete_handoff.
type CompleteParams struct {
	HandoffID      string         `json:"handoff_id"`
	CompletionData CompletionData `json:"completionData"`
}

// Validate validates the completion parameters.
func (p *CompleteParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.HandoffID, validation.Required, pathSafe),
		validation.Field(&p.CompletionData),
	)
}

// CompletionData closes out a handoff.
type CompletionData struct {
	EndTime       string   `json:"endTime"`
	Progress      []string `json:"progress"`
	NextSteps     []string `json:"nextSteps"`
	ArchiveReason string   `json:"archiveReason,omitempty"`
}

// Validate validates the completion data.
func (d CompletionData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.EndTime, validation.Required),
		validation.Field(&d.Progress, validation.NotNil),
		validation.Field(&d.NextSteps, validation.NotNil),
	)
}

// ArchiveParams are the parameters of archive_handoff.
type ArchiveParams struct {
	HandoffID string          `json:"handoff_id"`
	Metadata  ArchiveMetadata `json:"metadata"`
}

// Validate validates the archive parameters.
func (p *ArchiveParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.HandoffID, validation.Required, pathSafe),
		validation.Field(&p.Metadata),
	)
}

// ArchiveMetadata is recorded in the archive information block.
type ArchiveMetadata struct {
	Reason           string   `json:"reason"`
	Tags             []string `json:"tags"`
	CompletionStatus string   `json:"completionStatus"`
}

// Validate validates the archive metadata.
func (m ArchiveMetadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Reason, validation.Required),
		validation.Field(&m.Tags, validation.NotNil),
		validation.Field(&m.CompletionStatus, validation.Required, validation.In(anyOf(
			document.CompletionSuccess, document.CompletionPartial, document.CompletionBlocked)...)),
	)
}

// ListParams are the parameters of list_handoffs.
type ListParams struct {
	Status  string       `json:"status"`
	Type    string       `json:"type,omitempty"`
	Filters *ListFilters `json:"filters,omitempty"`
}

// Validate validates the list parameters.
func (p *ListParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Status, validation.Required, validation.In(anyOf(StatusActive, StatusArchived, StatusAll)...)),
		validation.Field(&p.Type, validation.In(anyOf(document.TypeStandard, document.TypeQuick)...)),
		validation.Field(&p.Filters),
	)
}

// ListFilters narrow a listing.
type ListFilters struct {
	DateRange *DateRange `json:"dateRange,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	HasIssues *bool      `json:"hasIssues,omitempty"`
}

// Validate validates the filters.
func (f ListFilters) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.DateRange),
	)
}

// DateRange is an inclusive date interval.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate validates the range bounds.
func (r DateRange) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Start, validation.Required),
		validation.Field(&r.End, validation.Required),
	)
}

// HistoryParams are the parameters of handoff_history.
type HistoryParams struct {
	HandoffID string `json:"handoff_id"`
	Limit     int    `json:"limit,omitempty"`
}

// Validate validates the history parameters.
func (p *HistoryParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.HandoffID, validation.Required, pathSafe),
		validation.Field(&p.Limit, validation.Min(0), validation.Max(1000)),
	)
}

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/handoff/internal/apperr"
	"github.com/starford/handoff/internal/document"
	"github.com/starford/handoff/internal/handoff"
)

// Method names.
const (
	MethodRead     = "read_handoff"
	MethodCreate   = "create_handoff"
	MethodUpdate   = "update_handoff"
	MethodComplete = "complete_handoff"
	MethodArchive  = "archive_handoff"
	MethodList     = "list_handoffs"
	MethodHistory  = "handoff_history"
)

// Methods lists every served method in registration order.
var Methods = []string{
	MethodRead, MethodCreate, MethodUpdate, MethodComplete,
	MethodArchive, MethodList, MethodHistory,
}

// Engine is the document engine as seen by the dispatcher.
type Engine interface {
	Create(ctx context.Context, p handoff.CreateParams) (*handoff.CreateResult, error)
	Read(ctx context.Context, id string) (*handoff.ReadResult, error)
	Summary(ctx context.Context, id string) (*document.Summary, error)
	Update(ctx context.Context, p handoff.UpdateParams) (*handoff.UpdateResult, error)
	Complete(ctx context.Context, p handoff.CompleteParams) (*handoff.CompleteResult, error)
	Archive(ctx context.Context, p handoff.ArchiveParams) (*handoff.ArchiveResult, error)
	List(ctx context.Context, p handoff.ListParams) (*handoff.ListResult, error)
	History(ctx context.Context, p handoff.HistoryParams) (*handoff.HistoryResult, error)
}

// Dispatcher decodes and validates params and routes calls to the engine.
type Dispatcher struct {
	engine Engine
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default.
func NewDispatcher(engine Engine, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{engine: engine, logger: logger}
}

// Call runs method with raw JSON params and returns its result.
func (d *Dispatcher) Call(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case MethodRead:
		var p handoff.ReadParams
		if err := bind(params, &p); err != nil {
			return nil, err
		}
		if p.Format == handoff.FormatSummary {
			return d.engine.Summary(ctx, p.HandoffID)
		}
		return d.engine.Read(ctx, p.HandoffID)

	case MethodCreate:
		var p handoff.CreateParams
		if err := bind(params, &p); err != nil {
			return nil, err
		}
		return d.engine.Create(ctx, p)

	case MethodUpdate:
		var p handoff.UpdateParams
		if err := bind(params, &p); err != nil {
			return nil, err
		}
		return d.engine.Update(ctx, p)

	case MethodComplete:
		var p handoff.CompleteParams
		if err := bind(params, &p); err != nil {
			return nil, err
		}
		return d.engine.Complete(ctx, p)

	case MethodArchive:
		var p handoff.ArchiveParams
		if err := bind(params, &p); err != nil {
			return nil, err
		}
		return d.engine.Archive(ctx, p)

	case MethodList:
		var p handoff.ListParams
		if err := bind(params, &p); err != nil {
			return nil, err
		}
		return d.engine.List(ctx, p)

	case MethodHistory:
		var p handoff.HistoryParams
		if err := bind(params, &p); err != nil {
			return nil, err
		}
		return d.engine.History(ctx, p)

	default:
		return nil, &UnknownMethodError{Method: method}
	}
}

// Handle runs req and builds the response envelope. A request without an id
// is answered with defaultID.
func (d *Dispatcher) Handle(ctx context.Context, req Request, defaultID json.RawMessage) Response {
	id := req.ID
	if len(id) == 0 {
		id = defaultID
	}
	result, err := d.Call(ctx, req.Method, req.Params)
	if err != nil {
		d.logError(req.Method, err)
		return Failure(id, err)
	}
	return Success(id, result)
}

func (d *Dispatcher) logError(method string, err error) {
	kind := apperr.Kind(err)
	attrs := []any{
		slog.String("method", method),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	}
	if kind == "internal" {
		d.logger.Error("rpc call failed", attrs...)
		return
	}
	d.logger.Debug("rpc call rejected", attrs...)
}

// bind decodes params into v and validates it. Absent params decode as {}.
func bind(params json.RawMessage, v validation.Validatable) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: invalid params: %v", apperr.ErrValidation, err)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return nil
}

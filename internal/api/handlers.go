package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/starford/handoff/internal/apperr"
	"github.com/starford/handoff/internal/rpc"
)

// maxBodyBytes caps a request envelope.
const maxBodyBytes = 4 << 20

// defaultID answers requests that carry no id.
var defaultID = []byte("1")

// Handler holds the HTTP route handlers.
type Handler struct {
	dispatcher *rpc.Dispatcher
}

// NewHandler creates a new Handler.
func NewHandler(d *rpc.Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Call handles POST /mcp. Success envelopes are sent with 200, error
// envelopes with 400.
func (h *Handler) Call(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, rpc.Failure(defaultID,
			fmt.Errorf("%w: read body: %v", apperr.ErrValidation, err)))
		return
	}

	req, err := rpc.DecodeRequest(body)
	if err != nil {
		id := req.ID
		if len(id) == 0 {
			id = defaultID
		}
		writeJSON(w, http.StatusBadRequest, rpc.Failure(id, err))
		return
	}

	resp := h.dispatcher.Handle(r.Context(), req, defaultID)
	status := http.StatusOK
	if resp.Error != nil {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

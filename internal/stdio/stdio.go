// Package stdio serves JSON-RPC requests read one per line from a stream.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/handoff/internal/apperr"
	"github.com/starford/handoff/internal/rpc"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 8 << 20

var (
	nullID         = json.RawMessage("null")
	errLineTooLong = fmt.Errorf("%w: request line exceeds %d bytes", apperr.ErrValidation, maxLineBytes)
)

// Serve reads requests from r and writes one response line per request to
// w until r is exhausted or ctx is cancelled. Blank lines are skipped.
// Lines that are not valid requests, including oversized ones, produce an
// error envelope and serving continues.
func Serve(ctx context.Context, d *rpc.Dispatcher, r io.Reader, w io.Writer, logger *slog.Logger) error {
	br := bufio.NewReaderSize(r, 64*1024)
	enc := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		raw, err := readLine(br, maxLineBytes)
		if errors.Is(err, io.EOF) {
			return nil
		}

		var resp rpc.Response
		switch {
		case errors.Is(err, errLineTooLong):
			logger.Debug("stdio: oversized request dropped")
			resp = rpc.Failure(nullID, err)
		case err != nil:
			return fmt.Errorf("stdio: read: %w", err)
		default:
			line := bytes.TrimSpace(raw)
			if len(line) == 0 {
				continue
			}
			resp = handleLine(ctx, d, line, logger)
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("stdio: write response: %w", err)
		}
	}
}

func handleLine(ctx context.Context, d *rpc.Dispatcher, line []byte, logger *slog.Logger) rpc.Response {
	req, err := rpc.DecodeRequest(line)
	if err != nil {
		id := req.ID
		if len(id) == 0 {
			id = nullID
		}
		logger.Debug("stdio: bad request", slog.String("error", err.Error()))
		return rpc.Failure(id, err)
	}
	return d.Handle(ctx, req, nullID)
}

// readLine returns the next line without its terminator. A line longer
// than limit is consumed up to its newline and reported as errLineTooLong.
// A final unterminated line is returned with a nil error.
func readLine(br *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > limit+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if tooLong {
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return nil, errLineTooLong
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, nil
		}
		return line, err
	}
}

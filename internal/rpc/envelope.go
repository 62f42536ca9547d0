// Package rpc implements the JSON-RPC envelope and the method dispatcher
// shared by the HTTP, stdio and MCP transports.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/handoff/internal/apperr"
)

// Version is the protocol version written on every response.
const Version = "2.0"

// CodeServerError is the single error code used for every failure.
const CodeServerError = -32000

// Request is an incoming call.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is the reply envelope. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is the error member of a Response.
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData classifies the failure. Fields holds per-field validation
// messages keyed by dotted JSON path.
type ErrorData struct {
	Kind   string            `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// UnknownMethodError is returned for methods the dispatcher does not serve.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string { return "Unknown method: " + e.Method }

func (e *UnknownMethodError) Unwrap() error { return apperr.ErrNotFound }

// DecodeRequest parses one request envelope.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("invalid request: %v: %w", err, apperr.ErrValidation)
	}
	if req.Method == "" {
		return req, fmt.Errorf("invalid request: method is required: %w", apperr.ErrValidation)
	}
	return req, nil
}

// Success wraps a result.
func Success(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, Result: result, ID: id}
}

// Failure wraps err into the error envelope.
func Failure(id json.RawMessage, err error) Response {
	return Response{JSONRPC: Version, Error: NewError(err), ID: id}
}

// NewError converts err into an envelope error.
func NewError(err error) *Error {
	data := &ErrorData{Kind: apperr.Kind(err)}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		data.Fields = make(map[string]string)
		flatten("", verrs, data.Fields)
	}
	return &Error{Code: CodeServerError, Message: err.Error(), Data: data}
}

func flatten(prefix string, errs validation.Errors, out map[string]string) {
	for k, err := range errs {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(name, nested, out)
			continue
		}
		out[name] = err.Error()
	}
}

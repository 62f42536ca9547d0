// Package apperr defines the error kinds shared by the engine and the transports.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrDisabled   = errors.New("disabled")
)

// Kind classifies err for the transport error envelope.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	default:
		return "internal"
	}
}

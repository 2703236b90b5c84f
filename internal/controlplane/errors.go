package controlplane

import (
	"errors"
	"net/http"

	"github.com/fentz26/tempo/internal/host"
)

// Sentinel errors for control plane operations.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrTemplateNotFound = host.ErrTemplateNotFound
	ErrInvalidTemplate  = host.ErrInvalidTemplate
)

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, host.ErrNoRun), errors.Is(err, host.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, host.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, host.ErrInvalidTemplate), errors.Is(err, host.ErrInvalidPace),
		errors.Is(err, host.ErrUnknownAction), errors.Is(err, host.ErrInvalidTask):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

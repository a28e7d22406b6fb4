package server

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/hashicorp/go-hclog"
)

var (
	// ErrNoSelection is returned when an execute request selects no items.
	ErrNoSelection = errors.New("no items selected")

	// ErrMissingDependency is returned by Dependencies.Validate.
	ErrMissingDependency = errors.New("missing dependency")
)

// mapError maps domain errors to HTTP status codes. Anything unknown is a 500.
func mapError(logger hclog.Logger, err error) huma.StatusError {
	switch {
	case errors.Is(err, ErrNoSelection):
		return huma.Error400BadRequest(err.Error())
	default:
		logger.Error("Unexpected error handling request", "error", err)
		return huma.Error500InternalServerError("Internal server error", err)
	}
}

// errorHandler routes handler errors through mapError. Errors huma raises
// itself, such as request validation failures, keep their status.
func errorHandler(logger hclog.Logger) func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
	return func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		switch {
		case len(errs) == 0:
			return huma.NewError(status, msg)
		case status != http.StatusInternalServerError:
			return huma.NewError(status, msg, errs...)
		case len(errs) == 1:
			return mapError(logger, errs[0])
		default:
			return mapError(logger, errors.Join(errs...))
		}
	}
}

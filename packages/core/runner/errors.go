package runner

import "errors"

var (
	// ErrDefinitionNotFound marks a selected reference with no definition.
	ErrDefinitionNotFound = errors.New("definition not found")
	// ErrTransport marks a request that could not be sent or answered.
	ErrTransport = errors.New("transport failure")
	// ErrUpstream marks a response with a non-2xx status.
	ErrUpstream = errors.New("upstream error")
)

package cmd

import "fmt"

// Exit codes for the colrun CLI
const (
	// ExitSuccess indicates every item succeeded
	ExitSuccess = 0

	// ExitItemFailure indicates one or more items failed
	ExitItemFailure = 1

	// ExitCollectionError indicates the collection could not be loaded or validated
	ExitCollectionError = 2

	// ExitConfigError indicates a configuration or environment error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

type exitError struct {
	code int
	err  error
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

package script

import (
	"errors"
	"fmt"
)

// ErrTimeout is reported when a script runs longer than the engine allows.
var ErrTimeout = errors.New("script timed out")

// Error is a failed script phase. The runner logs it and carries on.
type Error struct {
	Phase Phase
	Item  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s script for %q: %v", e.Phase, e.Item, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

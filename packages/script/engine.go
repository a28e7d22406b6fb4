package script

import "context"

// Engine evaluates script source against a Context. Implementations must not
// keep state between calls.
type Engine interface {
	Execute(ctx context.Context, source string, sc *Context) error
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, source string, sc *Context) error

func (f EngineFunc) Execute(ctx context.Context, source string, sc *Context) error {
	return f(ctx, source, sc)
}

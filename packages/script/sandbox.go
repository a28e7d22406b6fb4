package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
)

// Sandbox selects a definition's scripts by phase and runs them on an Engine.
// A failing script is logged and returned as *Error; it never panics out.
type Sandbox struct {
	engine Engine
	logger hclog.Logger
}

func NewSandbox(engine Engine, logger hclog.Logger) *Sandbox {
	if engine == nil {
		engine = NewJSEngine()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Sandbox{engine: engine, logger: logger}
}

// RunPreRequest runs the "prerequest" script of def, if any.
func (s *Sandbox) RunPreRequest(ctx context.Context, def *collection.Definition, host Host) error {
	return s.run(ctx, def, &Context{
		Phase: PhasePreRequest,
		Item:  def.Name,
		Host:  host,
	})
}

// RunTest runs the "test" script of def, if any, with resp bound.
func (s *Sandbox) RunTest(ctx context.Context, def *collection.Definition, host Host, resp *Response) error {
	return s.run(ctx, def, &Context{
		Phase:    PhaseTest,
		Item:     def.Name,
		Host:     host,
		Response: resp,
	})
}

func (s *Sandbox) run(ctx context.Context, def *collection.Definition, sc *Context) error {
	source := def.Script(string(sc.Phase))
	if strings.TrimSpace(source) == "" {
		return nil
	}

	sc.Logger = s.logger.With("phase", string(sc.Phase), "item", def.Name)
	err := s.execute(ctx, source, sc)
	if err == nil {
		return nil
	}

	s.logger.Warn("script execution failed", "phase", sc.Phase, "item", def.Name, "error", err)
	return &Error{Phase: sc.Phase, Item: def.Name, Err: err}
}

func (s *Sandbox) execute(ctx context.Context, source string, sc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script engine panic: %v", r)
		}
	}()
	return s.engine.Execute(ctx, source, sc)
}

package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/http"
	"github.com/abdul-hamid-achik/colrun/packages/script"
)

// DefinitionSource resolves a selected reference to a definition.
type DefinitionSource interface {
	Definition(i int) (*collection.Definition, bool)
}

type Runner struct {
	transport http.Transport
	sandbox   *script.Sandbox
	engine    script.Engine
	logger    hclog.Logger
	delay     time.Duration
}

type Option func(*Runner)

func WithLogger(logger hclog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithEngine replaces the default goja script engine.
func WithEngine(engine script.Engine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithDelay sets the minimum spacing between the starts of two items.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.delay = d
	}
}

func NewRunner(transport http.Transport, opts ...Option) *Runner {
	r := &Runner{
		transport: transport,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.transport == nil {
		r.transport = http.NewClient()
	}
	if r.engine == nil {
		r.engine = script.NewJSEngine()
	}
	r.logger = r.logger.Named("runner")
	r.sandbox = script.NewSandbox(r.engine, r.logger.Named("script"))
	return r
}

// RunBatch runs the definitions selected by refs, in the given order, against
// e. It always returns exactly len(refs) results and never stops early.
func (r *Runner) RunBatch(ctx context.Context, source DefinitionSource, refs []int, e *env.Environment) *BatchResult {
	defs := make([]*collection.Definition, len(refs))
	for i, ref := range refs {
		if def, ok := source.Definition(ref); ok {
			defs[i] = def
		}
	}
	return r.run(ctx, defs, refs, e)
}

// RunDefinitions runs defs in order. A nil entry yields a not-found result.
func (r *Runner) RunDefinitions(ctx context.Context, defs []*collection.Definition, e *env.Environment) *BatchResult {
	refs := make([]int, len(defs))
	for i := range defs {
		refs[i] = i
	}
	return r.run(ctx, defs, refs, e)
}

func (r *Runner) run(ctx context.Context, defs []*collection.Definition, refs []int, e *env.Environment) *BatchResult {
	if e == nil {
		e = env.New("")
	}

	var limiter *rate.Limiter
	if r.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(r.delay), 1)
	}

	r.logger.Info("starting batch", "items", len(defs))
	agg := NewAggregator()

	for i, def := range defs {
		order := i + 1

		if def == nil {
			r.logger.Warn("definition not found", "order", order, "ref", refs[i])
			agg.Add(notFound(refs[i], order))
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				r.logger.Debug("delay interrupted", "error", err)
			}
		}

		agg.Add(r.RunOne(ctx, def, e, order))
	}

	result := agg.Finish(e)
	r.logger.Info("batch finished", "total", result.Total, "succeeded", result.Succeeded, "failed", result.Failed, "duration", result.Duration)
	return result
}

// RunOne executes a single definition. Script failures are logged and
// ignored; transport failures and non-2xx responses become error results.
func (r *Runner) RunOne(ctx context.Context, def *collection.Definition, e *env.Environment, order int) *ExecutionResult {
	start := time.Now()
	logger := r.logger.With("order", order, "item", def.Name)
	logger.Info("executing item")

	result := &ExecutionResult{
		ItemName: def.Name,
		Order:    order,
		Method:   def.DisplayMethod(),
		URL:      def.DisplayURL(),
	}

	_ = r.sandbox.RunPreRequest(ctx, def, e)

	resolver := env.NewResolver(e)
	resolver.SetWarnFunc(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	})
	if missing := resolver.Unresolved(def.URL.Template()); len(missing) > 0 {
		logger.Debug("url has unresolved variables", "variables", missing)
	}
	req := http.BuildRequestWithResolver(def, resolver)
	logger.Debug("sending request", "method", req.Method)

	resp, err := r.transport.Send(ctx, req)
	if err != nil {
		result.Status = StatusError
		result.ErrorKind = KindTransport
		result.ErrorMessage = err.Error()
		result.Err = fmt.Errorf("%w: %w", ErrTransport, err)
		finish(result, start)
		logger.Warn("transport failure", "error", err)
		return result
	}

	logger.Debug("response received", "status", resp.StatusCode, "round_trip", resp.Duration)

	body := resp.ParsedBody()
	result.StatusCode = resp.StatusCode
	result.StatusText = resp.StatusText()
	result.ResponseBody = body

	if resp.IsSuccess() {
		_ = r.sandbox.RunTest(ctx, def, e, &script.Response{
			Code:    resp.StatusCode,
			Status:  resp.StatusText(),
			Headers: resp.Headers,
			Body:    body,
			Text:    resp.BodyString(),
		})
		result.Status = StatusSuccess
	} else {
		result.Status = StatusError
		result.ErrorKind = KindUpstream
		result.ErrorMessage = fmt.Sprintf("%d %s", resp.StatusCode, result.StatusText)
		result.Err = fmt.Errorf("%w: %s", ErrUpstream, result.ErrorMessage)
	}

	finish(result, start)
	logger.Info("item completed", "status", resp.StatusCode, "duration_ms", result.ResponseTimeMs)
	return result
}

func finish(result *ExecutionResult, start time.Time) {
	result.ResponseTimeMs = time.Since(start).Milliseconds()
	result.Timestamp = time.Now().UTC()
}

func notFound(ref, order int) *ExecutionResult {
	return &ExecutionResult{
		ItemName:     fmt.Sprintf("item %d", ref),
		Order:        order,
		Status:       StatusError,
		ErrorKind:    KindNotFound,
		ErrorMessage: ErrDefinitionNotFound.Error(),
		Timestamp:    time.Now().UTC(),
		Err:          ErrDefinitionNotFound,
	}
}

package query

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oakwood-commons/jqx/internal/jsonvalue"
	"github.com/oakwood-commons/jqx/internal/table"
)

const (
	// PendingMessage is the status of a query that has not finished yet.
	PendingMessage = "..."
	// NullMessage is the status of a query that evaluated to null.
	NullMessage = "null"

	tracerName = "github.com/oakwood-commons/jqx/internal/query"
)

// Result is the outcome of one query. Table is nil when the query failed,
// is still pending, or produced null; Message then says which.
type Result struct {
	Message string
	Table   *table.Content
}

// Pending reports whether r is the placeholder for an unfinished query.
func (r Result) Pending() bool {
	return r.Table == nil && r.Message == PendingMessage
}

type worker struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	result chan Result
}

// Engine runs at most one jq worker at a time. Changing the expression kills
// the running worker and waits for it before the next one starts, so a result
// always belongs to the latest expression.
//
// Engine is not safe for concurrent use; it is driven from the UI loop.
type Engine struct {
	ctx        context.Context
	runner     runner
	log        logr.Logger
	tracer     trace.Tracer
	expression string
	started    bool
	worker     *worker
	latest     *Result
}

// Option configures an Engine.
type Option func(*Engine)

// WithCommandFactory injects a custom command factory (used in tests).
func WithCommandFactory(f CommandFactory) Option {
	return func(e *Engine) { e.runner.factory = f }
}

// WithBinary overrides the jq executable.
func WithBinary(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.runner.binary = path
		}
	}
}

// WithSlurp makes jq read all inputs into one array.
func WithSlurp(slurp bool) Option {
	return func(e *Engine) { e.runner.slurp = slurp }
}

// WithPrelude prepends jq definitions to every expression.
func WithPrelude(prelude string) Option {
	return func(e *Engine) { e.runner.prelude = prelude }
}

// WithLogger sets the engine's logger.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithTracer overrides the tracer used for query spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine returns an idle engine over the given input files. ctx bounds
// the lifetime of every worker.
func NewEngine(ctx context.Context, files []string, opts ...Option) *Engine {
	e := &Engine{
		ctx: ctx,
		runner: runner{
			binary:  DefaultBinary,
			files:   files,
			factory: defaultCommandFactory,
		},
		log:    logr.Discard(),
		tracer: otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Expression returns the expression of the most recent Update.
func (e *Engine) Expression() string { return e.expression }

// Args returns the jq command line used for expression.
func (e *Engine) Args(expression string) []string { return e.runner.args(expression) }

// Update starts evaluating expression unless it equals the expression
// already being tracked. It reports whether a new worker was started.
func (e *Engine) Update(expression string) bool {
	if e.started && expression == e.expression {
		return false
	}
	e.restart(expression)
	return true
}

// Reload evaluates the current expression again.
func (e *Engine) Reload() {
	e.restart(e.expression)
}

// Status returns the result of the outstanding worker. It returns nil when
// no worker is outstanding, or when block is false and the worker is still
// running. When block is true it waits up to timeout and then returns a
// pending placeholder, leaving the worker running.
func (e *Engine) Status(block bool, timeout time.Duration) *Result {
	w := e.worker
	if w == nil {
		return nil
	}

	var res Result
	if block {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case res = <-w.result:
		case <-timer.C:
			pending := Result{Message: PendingMessage}
			e.latest = &pending
			return &pending
		}
	} else {
		select {
		case res = <-w.result:
		default:
			return nil
		}
	}

	<-w.done
	w.cancel()
	e.worker = nil
	e.latest = &res
	return &res
}

// Latest returns the last result handed out by Status, or nil.
func (e *Engine) Latest() *Result { return e.latest }

// Running reports whether a worker is outstanding.
func (e *Engine) Running() bool { return e.worker != nil }

// RunPlain evaluates expression synchronously and returns the decoded value.
func (e *Engine) RunPlain(ctx context.Context, expression string) (jsonvalue.Value, error) {
	return e.runner.evaluate(ctx, expression)
}

// Close stops the running worker, if any.
func (e *Engine) Close() {
	e.stop()
}

func (e *Engine) stop() {
	w := e.worker
	if w == nil {
		return
	}
	w.cancel()
	<-w.done
	e.worker = nil
	e.log.V(1).Info("query superseded", "run_id", w.id)
}

func (e *Engine) restart(expression string) {
	e.stop()

	ctx, cancel := context.WithCancel(e.ctx)
	w := &worker{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
		result: make(chan Result, 1),
	}
	e.worker = w
	e.expression = expression
	e.started = true

	e.log.V(1).Info("query started", "run_id", w.id, "expression", expression)
	go e.run(ctx, w, expression)
}

func (e *Engine) run(ctx context.Context, w *worker, expression string) {
	defer close(w.done)

	ctx, span := e.tracer.Start(ctx, "jq.evaluate", trace.WithAttributes(
		attribute.String("jqx.run_id", w.id),
		attribute.String("jqx.expression", expression),
	))
	defer span.End()

	send := func(r Result) {
		select {
		case w.result <- r:
		default:
		}
	}
	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "panic")
			send(Result{Message: fmt.Sprintf("internal error: %v", r)})
		}
	}()

	start := time.Now()
	v, err := e.runner.evaluate(ctx, expression)
	if ctx.Err() != nil {
		// Superseded or shut down; nobody reads this worker's channel.
		return
	}
	e.log.V(1).Info("query finished", "run_id", w.id, "duration", time.Since(start).String(), "ok", err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		send(Result{Message: err.Error()})
		return
	}
	if _, ok := v.(jsonvalue.Null); ok {
		send(Result{Message: NullMessage})
		return
	}
	content := table.Project(v)
	span.SetAttributes(attribute.Int("jqx.rows", content.Len()))
	send(Result{Table: content})
}

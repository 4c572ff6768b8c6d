// Package search runs best-first (A*) and breadth-first traversals over
// planner states and reconstructs the winning action sequence.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/signalsfoundry/constellation-planner/internal/heuristic"
	"github.com/signalsfoundry/constellation-planner/internal/logging"
	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/signalsfoundry/constellation-planner/internal/search"

var (
	// ErrNoSolution means the frontier emptied without reaching a goal.
	ErrNoSolution = errors.New("no solution")
	// ErrExpansionLimit means the caller's expansion budget ran out first.
	ErrExpansionLimit = errors.New("expansion limit reached")
	// ErrUnknownAlgorithm is returned by ParseAlgorithm.
	ErrUnknownAlgorithm = errors.New("unknown search algorithm")
)

// Algorithm names a traversal strategy.
type Algorithm string

const (
	AlgorithmAStar Algorithm = "astar"
	AlgorithmBFS   Algorithm = "bfs"
)

// ParseAlgorithm accepts "astar" (also "a*", "a_star") and "bfs".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "astar", "a*", "a_star", "a-star":
		return AlgorithmAStar, nil
	case "bfs", "breadth-first":
		return AlgorithmBFS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Search outcomes reported to metrics and spans.
const (
	OutcomeSolved     = "solved"
	OutcomeNoSolution = "no_solution"
	OutcomeLimit      = "limit"
	OutcomeCanceled   = "canceled"
)

// MetricsRecorder receives search statistics. observability.SearchCollector
// implements it.
type MetricsRecorder interface {
	ObserveSearch(algorithm, heuristic, outcome string, expansions int, elapsed time.Duration)
	SetSearchProgress(algorithm string, frontier, closed int)
}

// Result is what a search run produced. Goal is nil unless the run solved
// the problem; Expansions and Elapsed are always filled in.
type Result struct {
	Goal       *state.State
	Expansions int
	Algorithm  Algorithm
	Heuristic  string
	Elapsed    time.Duration
}

// Engine runs searches. The zero value is not usable; call New.
type Engine struct {
	log           logging.Logger
	metrics       MetricsRecorder
	maxExpansions int
	progressEvery int
}

// Option customises Engine construction.
type Option func(*Engine)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxExpansions bounds the number of expansions per run. Zero or a
// negative value means unbounded.
func WithMaxExpansions(n int) Option {
	return func(e *Engine) { e.maxExpansions = n }
}

// WithProgressInterval sets how many expansions pass between progress
// reports (debug log plus frontier/closed gauges).
func WithProgressInterval(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.progressEvery = n
		}
	}
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:           logging.Noop(),
		progressEvery: 10000,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run dispatches to AStar or BFS. h is ignored by BFS.
func (e *Engine) Run(ctx context.Context, alg Algorithm, root *state.State, h heuristic.Heuristic) (Result, error) {
	switch alg {
	case AlgorithmAStar:
		return e.AStar(ctx, root, h)
	case AlgorithmBFS:
		return e.BFS(ctx, root)
	default:
		return Result{Algorithm: alg}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(alg))
	}
}

// AStar runs best-first search ordered by f = g + h. The first goal popped
// from the frontier is returned. States whose Key was already expanded are
// neither pushed nor expanded again.
func (e *Engine) AStar(ctx context.Context, root *state.State, h heuristic.Heuristic) (Result, error) {
	if h == nil {
		h = heuristic.Zero{}
	}
	run := e.begin(ctx, AlgorithmAStar, h.Name())
	defer run.span.End()

	open := newPriorityFrontier()
	open.Push(root, heuristic.F(root, h))
	closed := make(map[state.Key]struct{})

	for open.Len() > 0 {
		node, _ := open.Pop()
		if node.IsGoal() {
			return run.finish(node, open.Len(), len(closed), nil)
		}

		key := node.Key()
		if _, seen := closed[key]; seen {
			continue
		}
		if err := e.checkBudget(run.ctx, run.expansions); err != nil {
			return run.finish(nil, open.Len(), len(closed), err)
		}
		closed[key] = struct{}{}

		children := node.Children()
		run.expansions++
		for _, child := range children {
			if _, seen := closed[child.Key()]; seen {
				continue
			}
			open.Push(child, heuristic.F(child, h))
		}
		run.progress(open.Len(), len(closed))
	}
	return run.finish(nil, 0, len(closed), ErrNoSolution)
}

// BFS runs breadth-first search. Children are goal-tested as they are
// generated, so the first goal found is the shallowest one reachable
// without revisiting an expanded Key. BFS ignores action costs.
func (e *Engine) BFS(ctx context.Context, root *state.State) (Result, error) {
	run := e.begin(ctx, AlgorithmBFS, "")
	defer run.span.End()

	if root.IsGoal() {
		return run.finish(root, 0, 0, nil)
	}

	open := &fifoFrontier{}
	open.Push(root)
	closed := make(map[state.Key]struct{})

	for open.Len() > 0 {
		node := open.Pop()
		key := node.Key()
		if _, seen := closed[key]; seen {
			continue
		}
		if err := e.checkBudget(run.ctx, run.expansions); err != nil {
			return run.finish(nil, open.Len(), len(closed), err)
		}
		closed[key] = struct{}{}

		children := node.Children()
		run.expansions++
		for _, child := range children {
			if child.IsGoal() {
				return run.finish(child, open.Len(), len(closed), nil)
			}
			if _, seen := closed[child.Key()]; !seen {
				open.Push(child)
			}
		}
		run.progress(open.Len(), len(closed))
	}
	return run.finish(nil, 0, len(closed), ErrNoSolution)
}

func (e *Engine) checkBudget(ctx context.Context, expansions int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.maxExpansions > 0 && expansions >= e.maxExpansions {
		return fmt.Errorf("%w: %d expansions", ErrExpansionLimit, expansions)
	}
	return nil
}

// searchRun carries the bookkeeping of a single traversal.
type searchRun struct {
	engine     *Engine
	ctx        context.Context
	span       trace.Span
	log        logging.Logger
	algorithm  Algorithm
	heuristic  string
	start      time.Time
	expansions int
}

func (e *Engine) begin(ctx context.Context, alg Algorithm, heuristicName string) *searchRun {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "search."+string(alg),
		trace.WithAttributes(
			attribute.String("search.algorithm", string(alg)),
			attribute.String("search.heuristic", heuristicName),
		),
	)
	log := logging.FromContext(ctx, e.log).With(
		logging.String("algorithm", string(alg)),
		logging.String("heuristic", heuristicName),
	)
	log.Debug(ctx, "search started")
	return &searchRun{
		engine:    e,
		ctx:       ctx,
		span:      span,
		log:       log,
		algorithm: alg,
		heuristic: heuristicName,
		start:     time.Now(),
	}
}

func (r *searchRun) progress(frontier, closed int) {
	if r.expansions%r.engine.progressEvery != 0 {
		return
	}
	r.log.Debug(r.ctx, "search progress",
		logging.Int("expansions", r.expansions),
		logging.Int("frontier", frontier),
		logging.Int("closed", closed),
	)
	if r.engine.metrics != nil {
		r.engine.metrics.SetSearchProgress(string(r.algorithm), frontier, closed)
	}
}

func (r *searchRun) finish(goal *state.State, frontier, closed int, err error) (Result, error) {
	res := Result{
		Goal:       goal,
		Expansions: r.expansions,
		Algorithm:  r.algorithm,
		Heuristic:  r.heuristic,
		Elapsed:    time.Since(r.start),
	}

	outcome := OutcomeSolved
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSolution):
		outcome = OutcomeNoSolution
	case errors.Is(err, ErrExpansionLimit):
		outcome = OutcomeLimit
	default:
		outcome = OutcomeCanceled
	}

	if m := r.engine.metrics; m != nil {
		m.SetSearchProgress(string(r.algorithm), frontier, closed)
		m.ObserveSearch(string(r.algorithm), r.heuristic, outcome, r.expansions, res.Elapsed)
	}

	r.span.SetAttributes(
		attribute.String("search.outcome", outcome),
		attribute.Int("search.expansions", r.expansions),
		attribute.Int("search.closed_states", closed),
	)
	fields := []logging.Field{
		logging.String("outcome", outcome),
		logging.Int("expansions", r.expansions),
		logging.Int("closed", closed),
		logging.Duration("elapsed", res.Elapsed),
	}
	if goal != nil {
		r.span.SetAttributes(
			attribute.Float64("plan.cost", goal.G),
			attribute.Int("plan.steps", goal.Steps()),
		)
		fields = append(fields, logging.Float64("cost", goal.G), logging.Int("steps", goal.Steps()))
	}
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, outcome)
		r.log.Info(r.ctx, "search stopped", append(fields, logging.Err(err))...)
		return res, err
	}
	r.log.Info(r.ctx, "search finished", fields...)
	return res, nil
}

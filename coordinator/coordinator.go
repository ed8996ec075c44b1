// Package coordinator dispatches a search over a pool of workers and folds
// their reports into run-level events.
//
// A Coordinator owns all run state on a single goroutine started by Run.
// Other goroutines interact with it through Launch, Dispatch and Cancel,
// which exchange commands with that goroutine.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/getpup/pupsourcing/es"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	search "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/combinadic"
	"github.com/getpup/polestar-search/evaluator"
	"github.com/getpup/polestar-search/lifecycle"
	"github.com/getpup/polestar-search/metrics"
	"github.com/getpup/polestar-search/worker"
)

const tracerName = "github.com/getpup/polestar-search/coordinator"

var (
	// ErrAlreadyRunning indicates Run was called more than once.
	ErrAlreadyRunning = errors.New("coordinator already running")

	// ErrMissingHooks indicates the coordinator was configured without hooks.
	ErrMissingHooks = errors.New("coordinator hooks are required")
)

// Config holds configuration for the Coordinator.
type Config struct {
	// Hooks construct workers and receive run events (required).
	Hooks Hooks

	// AvailableParallelism bounds the worker count (default: runtime.NumCPU()).
	AvailableParallelism int

	// ReportEvery is the number of candidates between worker progress messages (default: 100).
	ReportEvery int

	// InboxSize is the capacity of the worker message channel (default: 256).
	InboxSize int

	// Collector records run metrics (optional).
	Collector *metrics.Collector

	// Tracer records one span per run (default: the global otel tracer).
	Tracer trace.Tracer

	// Logger is for observability (optional).
	Logger es.Logger
}

type commandKind int

const (
	commandDispatch commandKind = iota
	commandCancel
)

type command struct {
	kind  commandKind
	run   *Run
	reply chan error
}

type poolExit struct {
	runID search.RunID
	err   error
}

// activeRun is the state of the dispatched run. Only the coordinating goroutine touches it.
type activeRun struct {
	run     *Run
	ctx     context.Context
	cancel  context.CancelFunc
	span    trace.Span
	agg     Aggregate
	items   map[string][]search.Result
	started time.Time
}

// Coordinator runs one search at a time over a pool of workers.
type Coordinator struct {
	config    Config
	assigner  *Assigner
	lifecycle *lifecycle.Manager

	commands chan command
	inbox    chan search.Message
	exits    chan poolExit
	done     chan struct{}
	started  atomic.Bool

	// owned by the coordinating goroutine
	baseCtx context.Context
	active  *activeRun
}

// New creates a new Coordinator with the given configuration.
// Applies default values for AvailableParallelism, ReportEvery, InboxSize and Tracer if not set.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Hooks == nil {
		return nil, ErrMissingHooks
	}
	if cfg.AvailableParallelism <= 0 {
		cfg.AvailableParallelism = runtime.NumCPU()
	}
	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = worker.DefaultReportEvery
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}

	return &Coordinator{
		config:    cfg,
		assigner:  NewAssigner(),
		lifecycle: lifecycle.New(lifecycle.Config{Collector: cfg.Collector, Logger: cfg.Logger}),
		commands:  make(chan command),
		inbox:     make(chan search.Message, cfg.InboxSize),
		exits:     make(chan poolExit),
		done:      make(chan struct{}),
	}, nil
}

// State returns the current run state. Safe to call from any goroutine.
func (c *Coordinator) State() search.RunState {
	return c.lifecycle.State()
}

// ActiveRunID returns the run bound to the current state, or "" when idle.
func (c *Coordinator) ActiveRunID() search.RunID {
	return c.lifecycle.RunID()
}

// Prepare validates cfg and derives a Run from it without touching the
// active run. Configuration errors wrap search.ErrInvalidConfig or
// search.ErrNoWork.
func (c *Coordinator) Prepare(cfg search.RunConfig) (*Run, error) {
	run, err := c.prepare(cfg)
	if err != nil && c.config.Collector != nil {
		c.config.Collector.IncConfigErrors()
	}
	return run, err
}

func (c *Coordinator) prepare(cfg search.RunConfig) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := len(cfg.Universe)
	total := combinadic.Count(n, cfg.K)
	if cfg.MaxIterations != nil && cfg.MaxIterations.Sign() > 0 && cfg.MaxIterations.Cmp(total) < 0 {
		total = new(big.Int).Set(cfg.MaxIterations)
	}
	if total.Sign() == 0 {
		return nil, fmt.Errorf("%w: no %d-combinations of %d items", search.ErrNoWork, cfg.K, n)
	}

	indexer, err := combinadic.New(n, cfg.K)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrInvalidConfig, err)
	}

	ctx := evaluator.New(cfg.Universe, cfg.Entities, evaluator.Options{
		UnownedBudget:       cfg.UnownedBudget,
		MinQualifying:       cfg.EffectiveMinQualifying(),
		ExclusiveCategories: cfg.ExclusiveCategories,
	})

	id := search.RunID(uuid.NewString())
	workers := WorkerCount(cfg.MaxWorkers, c.config.AvailableParallelism)

	return &Run{
		ID:          id,
		Config:      cfg,
		Total:       total,
		Indexer:     indexer,
		Evaluator:   ctx,
		Slices:      c.assigner.Assign(id, total, workers),
		PreparedAt:  time.Now(),
		reportEvery: c.config.ReportEvery,
		logger:      c.config.Logger,
	}, nil
}

// Launch hands a prepared run to the coordinating goroutine, which cancels
// the active run if there is one and then starts the new run's workers.
// It returns once the workers have been started.
func (c *Coordinator) Launch(ctx context.Context, run *Run) error {
	if run == nil || len(run.Slices) == 0 {
		return fmt.Errorf("%w: run has no slices", search.ErrNoWork)
	}
	return c.send(ctx, command{kind: commandDispatch, run: run})
}

// Dispatch prepares and launches a run for cfg.
func (c *Coordinator) Dispatch(ctx context.Context, cfg search.RunConfig) (*Run, error) {
	run, err := c.Prepare(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Launch(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Cancel stops the active run. Returns search.ErrNoActiveRun if no run is active.
func (c *Coordinator) Cancel(ctx context.Context) error {
	return c.send(ctx, command{kind: commandCancel})
}

func (c *Coordinator) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)

	select {
	case c.commands <- cmd:
	case <-c.done:
		return search.ErrCoordinatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		select {
		case err := <-cmd.reply:
			return err
		default:
			return search.ErrCoordinatorStopped
		}
	}
}

// Run is the coordinating loop. It owns all run state until ctx is
// cancelled, at which point the active run is cancelled and Run returns nil.
// Run may be called once.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	c.baseCtx = ctx

	if c.config.Logger != nil {
		c.config.Logger.Info(ctx, "coordinator started", "availableParallelism", c.config.AvailableParallelism)
	}

	for {
		select {
		case <-ctx.Done():
			if c.active != nil {
				c.cancelActive(ctx)
			}
			if c.config.Logger != nil {
				c.config.Logger.Info(ctx, "coordinator stopped")
			}
			return nil

		case cmd := <-c.commands:
			cmd.reply <- c.handleCommand(ctx, cmd)

		case msg := <-c.inbox:
			c.handleMessage(ctx, msg)

		case exit := <-c.exits:
			c.handleExit(ctx, exit)
		}
	}
}

func (c *Coordinator) handleCommand(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case commandDispatch:
		if c.active != nil {
			c.cancelActive(ctx)
		}
		return c.dispatch(cmd.run)

	case commandCancel:
		if c.active == nil {
			return search.ErrNoActiveRun
		}
		c.cancelActive(ctx)
		return nil
	}
	return fmt.Errorf("unknown command %d", cmd.kind)
}

func (c *Coordinator) dispatch(run *Run) error {
	spanCtx, span := c.config.Tracer.Start(c.baseCtx, "polestar.search.run",
		trace.WithAttributes(
			attribute.String("run.id", string(run.ID)),
			attribute.String("run.total", run.Total.String()),
			attribute.Int("run.k", run.Config.K),
			attribute.Int("run.universe", len(run.Config.Universe)),
			attribute.Int("run.workers", run.Workers()),
		))
	runCtx, cancel := context.WithCancel(spanCtx)

	if err := c.lifecycle.Transition(runCtx, run.ID, search.RunStateDispatching); err != nil {
		cancel()
		span.End()
		return err
	}

	c.active = &activeRun{
		run:     run,
		ctx:     runCtx,
		cancel:  cancel,
		span:    span,
		agg:     NewAggregate(run.Total, run.Workers()),
		items:   make(map[string][]search.Result, run.Workers()),
		started: time.Now(),
	}

	g, gctx := errgroup.WithContext(runCtx)
	for _, slice := range run.Slices {
		runner := c.config.Hooks.NewWorker(c.config.Hooks.WorkerConfig(run, slice))
		g.Go(func() error {
			return runner.Run(gctx, c.inbox)
		})
	}
	go func() {
		err := g.Wait()
		select {
		case c.exits <- poolExit{runID: run.ID, err: err}:
		case <-c.done:
		}
	}()

	if c.config.Collector != nil {
		c.config.Collector.IncRunsStarted()
		c.config.Collector.SetActiveWorkers(run.Workers())
		c.config.Collector.SetRunProgress(0)
	}
	if c.config.Logger != nil {
		c.config.Logger.Info(runCtx, "run dispatched",
			"runID", run.ID, "total", run.Total.String(), "workers", run.Workers(), "k", run.Config.K)
	}

	return nil
}

func (c *Coordinator) handleMessage(ctx context.Context, msg search.Message) {
	a := c.active
	if a == nil || msg.RunID != a.run.ID {
		if c.config.Collector != nil {
			c.config.Collector.IncStaleMessages()
		}
		if c.config.Logger != nil {
			c.config.Logger.Debug(ctx, "dropping worker message",
				"runID", msg.RunID, "workerID", msg.WorkerID, "reason", search.ErrRunSuperseded)
		}
		return
	}

	if c.lifecycle.State() == search.RunStateDispatching {
		c.transition(a, search.RunStateRunning)
	}

	a.agg = Reduce(a.agg, msg)

	if msg.Item != nil {
		event := a.event(search.EventItem)
		event.Item = msg.Item
		c.config.Hooks.OnItem(event)
	} else {
		c.config.Hooks.OnProgress(a.event(search.EventProgress))
	}

	if c.config.Collector != nil {
		c.config.Collector.SetRunProgress(a.agg.Percent())
	}

	if !msg.InProgress {
		a.items[msg.WorkerID] = msg.Items
		if c.config.Logger != nil {
			c.config.Logger.Debug(a.ctx, "worker completed",
				"runID", a.run.ID, "workerID", msg.WorkerID, "accepted", len(msg.Items), "elapsed", msg.Elapsed,
				"finished", a.agg.Finished(), "workers", a.agg.Expected)
		}
		if a.agg.Complete() {
			c.complete(a)
		}
	}
}

func (c *Coordinator) complete(a *activeRun) {
	var items []search.Result
	for _, slice := range a.run.Slices {
		items = append(items, a.items[slice.WorkerID]...)
	}

	elapsed := time.Since(a.started)
	event := a.event(search.EventComplete)
	event.TotalExamined = new(big.Int).Set(event.Counters.Examined)
	event.Elapsed = elapsed
	event.Items = items

	c.transition(a, search.RunStateCompleted)
	c.config.Hooks.OnComplete(event)

	a.span.SetAttributes(
		attribute.String("run.examined", event.TotalExamined.String()),
		attribute.Int("run.accepted", len(items)),
	)
	a.span.SetStatus(codes.Ok, "")
	c.teardown(a, search.RunStateCompleted, elapsed, event.Counters)

	if c.config.Logger != nil {
		c.config.Logger.Info(a.ctx, "run completed",
			"runID", a.run.ID, "examined", event.TotalExamined.String(), "accepted", len(items), "elapsed", elapsed)
	}
}

func (c *Coordinator) cancelActive(ctx context.Context) {
	a := c.active
	a.cancel()

	elapsed := time.Since(a.started)
	event := a.event(search.EventCancelled)
	event.Elapsed = elapsed

	c.transition(a, search.RunStateCancelled)
	c.config.Hooks.OnCancel(event)

	a.span.SetAttributes(attribute.Bool("run.cancelled", true))
	c.teardown(a, search.RunStateCancelled, elapsed, event.Counters)

	if c.config.Logger != nil {
		c.config.Logger.Info(ctx, "run cancelled",
			"runID", a.run.ID, "examined", event.Counters.Examined.String(), "percent", event.Percent)
	}
}

// teardown releases the run's workers and returns the lifecycle to idle.
func (c *Coordinator) teardown(a *activeRun, outcome search.RunState, elapsed time.Duration, counters search.Counters) {
	a.cancel()
	a.span.End()

	if c.config.Collector != nil {
		if outcome == search.RunStateCompleted {
			c.config.Collector.IncRunsCompleted()
		} else {
			c.config.Collector.IncRunsCancelled()
		}
		c.config.Collector.AddCandidates(counters.Examined, counters.Accepted)
		c.config.Collector.ObserveRunDuration(outcome, elapsed.Seconds())
		c.config.Collector.SetActiveWorkers(0)
	}

	c.transition(a, search.RunStateIdle)
	c.active = nil
}

func (c *Coordinator) handleExit(ctx context.Context, exit poolExit) {
	if exit.err == nil || errors.Is(exit.err, context.Canceled) {
		if c.config.Logger != nil {
			c.config.Logger.Debug(ctx, "worker pool exited", "runID", exit.runID)
		}
		return
	}

	if c.config.Collector != nil {
		c.config.Collector.IncWorkerFailures()
	}
	if c.config.Logger != nil {
		c.config.Logger.Error(ctx, "worker failed", "runID", exit.runID, "error", exit.err)
	}
	if a := c.active; a != nil && a.run.ID == exit.runID {
		a.span.RecordError(exit.err)
		a.span.SetStatus(codes.Error, "worker failed")
	}
}

func (c *Coordinator) transition(a *activeRun, to search.RunState) {
	if err := c.lifecycle.Transition(a.ctx, a.run.ID, to); err != nil && c.config.Logger != nil {
		c.config.Logger.Error(a.ctx, "run state transition failed", "runID", a.run.ID, "error", err)
	}
}

func (a *activeRun) event(kind search.EventKind) search.Event {
	return search.Event{
		RunID:      a.run.ID,
		Kind:       kind,
		InProgress: kind != search.EventComplete,
		Counters:   a.agg.Counters(),
		Total:      new(big.Int).Set(a.run.Total),
		Percent:    a.agg.Percent(),
	}
}

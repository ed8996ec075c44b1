// Package session is the entry point for running polestar searches in-process.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/getpup/pupsourcing/es"
	"go.opentelemetry.io/otel/trace"

	rootpkg "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/coordinator"
	"github.com/getpup/polestar-search/metrics"
)

// Re-export core types from root package
type (
	// RunID identifies a single dispatch of the search engine.
	RunID = rootpkg.RunID

	// RunConfig is supplied once at run start.
	RunConfig = rootpkg.RunConfig

	// Item is one element of the searchable universe.
	Item = rootpkg.Item

	// Entity is a domain object a combination can unlock.
	Entity = rootpkg.Entity

	// Result is an accepted combination.
	Result = rootpkg.Result

	// Event is published to the caller of Start.
	Event = rootpkg.Event

	// EventFunc receives events for one run.
	EventFunc = rootpkg.EventFunc

	// RunState is the state of the run lifecycle.
	RunState = rootpkg.RunState
)

// Option configures a Session.
type Option func(*config)

// config holds the internal configuration for creating a Session.
type config struct {
	name                 string
	logger               es.Logger
	availableParallelism int
	reportEvery          int
	metricsEnabled       bool
	tracer               trace.Tracer
}

// Session runs one search at a time and fans events out to per-run callbacks.
type Session struct {
	coord     *coordinator.Coordinator
	collector *metrics.Collector
	logger    es.Logger

	stop      context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	// startMu orders Start calls so current follows the coordinator's dispatch order.
	startMu sync.Mutex

	mu        sync.Mutex
	callbacks map[RunID]EventFunc
	current   RunID
	results   []Result
	progress  Event
}

// Compile-time check that Session implements Searcher.
var _ rootpkg.Searcher = (*Session)(nil)

// New creates a Session and starts its coordinating goroutine.
//
// Optional configuration (with defaults):
//   - WithName: label for metrics and logs (default: "default")
//   - WithLogger: logger for observability (default: nil)
//   - WithAvailableParallelism: upper bound on workers per run (default: runtime.NumCPU())
//   - WithReportEvery: candidates between worker progress reports (default: 100)
//   - WithMetricsEnabled: enable Prometheus metrics (default: true)
//   - WithTracer: tracer for run spans (default: the global otel tracer)
//
// Example:
//
//	s, err := session.New(session.WithName("crew-planner"))
//	if err != nil { ... }
//	defer s.Close()
//
//	id, err := s.Start(ctx, cfg, func(e session.Event) { ... })
//
// Call Close to stop the coordinating goroutine.
func New(opts ...Option) (*Session, error) {
	cfg := &config{
		name:           "default",
		metricsEnabled: true,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.name == "" {
		return nil, fmt.Errorf("name must not be empty: use WithName option")
	}

	s := &Session{
		logger:    cfg.logger,
		callbacks: make(map[RunID]EventFunc),
		done:      make(chan struct{}),
	}
	if cfg.metricsEnabled {
		s.collector = metrics.NewCollector(cfg.name)
	}

	coord, err := coordinator.New(coordinator.Config{
		Hooks:                hooks{session: s},
		AvailableParallelism: cfg.availableParallelism,
		ReportEvery:          cfg.reportEvery,
		Collector:            s.collector,
		Tracer:               cfg.tracer,
		Logger:               cfg.logger,
	})
	if err != nil {
		return nil, err
	}
	s.coord = coord

	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	go func() {
		defer close(s.done)
		_ = coord.Run(ctx)
	}()

	return s, nil
}

// WithName sets the label used for metrics and logs.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger for observability.
func WithLogger(logger es.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithAvailableParallelism sets the upper bound on workers per run.
func WithAvailableParallelism(n int) Option {
	return func(c *config) {
		c.availableParallelism = n
	}
}

// WithReportEvery sets the number of candidates between worker progress reports.
func WithReportEvery(n int) Option {
	return func(c *config) {
		c.reportEvery = n
	}
}

// WithMetricsEnabled enables or disables Prometheus metrics.
func WithMetricsEnabled(enabled bool) Option {
	return func(c *config) {
		c.metricsEnabled = enabled
	}
}

// WithTracer sets the tracer that records one span per run.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		c.tracer = tracer
	}
}

// Start begins a run and returns its identifier.
//
// Configuration errors wrap ErrInvalidConfig or ErrNoWork and are returned
// before any worker starts. If a run is active it is cancelled first: its
// callback receives a cancelled event and never a complete event.
//
// onEvent may be nil. It is called on the coordinating goroutine and must
// not call Start or Cancel synchronously.
func (s *Session) Start(ctx context.Context, cfg RunConfig, onEvent EventFunc) (RunID, error) {
	run, err := s.coord.Prepare(cfg)
	if err != nil {
		return "", err
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	previous := s.current
	if onEvent != nil {
		s.callbacks[run.ID] = onEvent
	}
	s.current = run.ID
	s.results = nil
	s.progress = Event{RunID: run.ID, InProgress: true, Total: run.Total}
	s.mu.Unlock()

	if err := s.coord.Launch(ctx, run); err != nil {
		s.mu.Lock()
		delete(s.callbacks, run.ID)
		if s.current == run.ID {
			s.current = previous
		}
		s.mu.Unlock()
		return "", err
	}

	if s.logger != nil {
		s.logger.Debug(ctx, "run started", "runID", run.ID)
	}
	return run.ID, nil
}

// Cancel stops the active run. Results already published stay visible.
// Returns ErrNoActiveRun if no run is active.
func (s *Session) Cancel(ctx context.Context) error {
	return s.coord.Cancel(ctx)
}

// Close cancels the active run and stops the coordinating goroutine.
// Subsequent Start and Cancel calls return ErrCoordinatorStopped.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.stop()
		<-s.done
	})
	return nil
}

// State returns the current run state.
func (s *Session) State() RunState {
	return s.coord.State()
}

// Results returns the accepted results of the most recent run published so
// far: previewed items while it runs, and the complete ordered set once it
// completes.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

// Progress returns the latest event of the most recent run.
func (s *Session) Progress() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// publish records event for the snapshots and forwards it to the run's callback.
func (s *Session) publish(event Event) {
	terminal := event.Kind == rootpkg.EventComplete || event.Kind == rootpkg.EventCancelled

	s.mu.Lock()
	if event.RunID == s.current {
		switch event.Kind {
		case rootpkg.EventItem:
			s.results = append(s.results, *event.Item)
		case rootpkg.EventComplete:
			s.results = event.Items
		}
		s.progress = event
	}
	callback := s.callbacks[event.RunID]
	if terminal {
		delete(s.callbacks, event.RunID)
	}
	s.mu.Unlock()

	if callback != nil {
		callback(event)
	}
}

// hooks adapts a Session to coordinator.Hooks.
type hooks struct {
	coordinator.DefaultHooks
	session *Session
}

func (h hooks) OnProgress(event Event) { h.session.publish(event) }
func (h hooks) OnItem(event Event)     { h.session.publish(event) }
func (h hooks) OnComplete(event Event) { h.session.publish(event) }
func (h hooks) OnCancel(event Event)   { h.session.publish(event) }

// Package lifecycle tracks the run state machine of a coordinator.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/getpup/pupsourcing/es"

	search "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/metrics"
)

// ErrInvalidTransition indicates a state change the run lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid run state transition")

var allowed = map[search.RunState][]search.RunState{
	search.RunStateIdle:        {search.RunStateDispatching},
	search.RunStateDispatching: {search.RunStateRunning, search.RunStateCompleted, search.RunStateCancelled},
	search.RunStateRunning:     {search.RunStateCompleted, search.RunStateCancelled},
	search.RunStateCompleted:   {search.RunStateIdle},
	search.RunStateCancelled:   {search.RunStateIdle},
}

// Config holds configuration for the lifecycle Manager.
type Config struct {
	// Collector mirrors the current state into the run state gauge (optional).
	Collector *metrics.Collector

	// Logger is for observability (optional).
	Logger es.Logger
}

// Manager holds the current run state. Transitions are made by the
// coordinating goroutine; State may be read from any goroutine.
type Manager struct {
	config Config

	mu    sync.RWMutex
	state search.RunState
	runID search.RunID
}

// New creates a new lifecycle Manager in the idle state.
func New(cfg Config) *Manager {
	m := &Manager{
		config: cfg,
		state:  search.RunStateIdle,
	}
	if cfg.Collector != nil {
		cfg.Collector.SetRunState(search.RunStateIdle)
	}
	return m
}

// CanTransition reports whether the lifecycle allows moving from one state to another.
func CanTransition(from, to search.RunState) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the run to the given state. Entering dispatching binds
// the manager to runID; entering idle clears it. Other transitions ignore runID.
func (m *Manager) Transition(ctx context.Context, runID search.RunID, to search.RunState) error {
	m.mu.Lock()
	from := m.state
	if !CanTransition(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.state = to
	switch to {
	case search.RunStateDispatching:
		m.runID = runID
	case search.RunStateIdle:
		m.runID = ""
	}
	m.mu.Unlock()

	if m.config.Collector != nil {
		m.config.Collector.SetRunState(to)
	}
	if m.config.Logger != nil {
		m.config.Logger.Debug(ctx, "run state updated", "runID", runID, "from", from, "to", to)
	}

	return nil
}

// State returns the current run state.
func (m *Manager) State() search.RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// RunID returns the run bound to the current state, or "" when idle.
func (m *Manager) RunID() search.RunID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID
}

package coordinator

import (
	"sync"

	search "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/worker"
)

// MockHooks is a mock implementation of Hooks for testing.
// Without function fields set it builds real workers from the run.
type MockHooks struct {
	mu               sync.Mutex
	WorkerConfigFunc func(run *Run, slice search.Slice) worker.Config
	NewWorkerFunc    func(cfg worker.Config) worker.Runner
	WorkerConfigs    []worker.Config
	Events           []search.Event
}

// Compile-time check that MockHooks implements Hooks.
var _ Hooks = (*MockHooks)(nil)

// NewMockHooks creates a new MockHooks with an empty call history.
func NewMockHooks() *MockHooks {
	return &MockHooks{}
}

// WorkerConfig implements Hooks.
func (m *MockHooks) WorkerConfig(run *Run, slice search.Slice) worker.Config {
	cfg := run.WorkerConfig(slice)
	if m.WorkerConfigFunc != nil {
		cfg = m.WorkerConfigFunc(run, slice)
	}

	m.mu.Lock()
	m.WorkerConfigs = append(m.WorkerConfigs, cfg)
	m.mu.Unlock()
	return cfg
}

// NewWorker implements Hooks.
func (m *MockHooks) NewWorker(cfg worker.Config) worker.Runner {
	if m.NewWorkerFunc != nil {
		return m.NewWorkerFunc(cfg)
	}
	return worker.New(cfg)
}

func (m *MockHooks) OnProgress(event search.Event) { m.record(event) }
func (m *MockHooks) OnItem(event search.Event)     { m.record(event) }
func (m *MockHooks) OnComplete(event search.Event) { m.record(event) }
func (m *MockHooks) OnCancel(event search.Event)   { m.record(event) }

func (m *MockHooks) record(event search.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// EventsOf returns a copy of the recorded events of the given kind for a run.
func (m *MockHooks) EventsOf(runID search.RunID, kind search.EventKind) []search.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []search.Event
	for _, e := range m.Events {
		if e.RunID == runID && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the call history.
func (m *MockHooks) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerConfigs = nil
	m.Events = nil
}

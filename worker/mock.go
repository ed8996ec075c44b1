package worker

import (
	"context"
	"sync"

	search "github.com/getpup/polestar-search"
)

// MockRunner is a mock implementation of Runner for testing.
type MockRunner struct {
	mu       sync.Mutex
	RunFunc  func(ctx context.Context, out chan<- search.Message) error
	RunCalls int
}

// NewMockRunner creates a new MockRunner with an empty call history.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Run counts the call and delegates to RunFunc. Without RunFunc it behaves
// like a worker with an endless slice: it sends nothing and returns
// ctx.Err() once cancelled.
func (m *MockRunner) Run(ctx context.Context, out chan<- search.Message) error {
	m.mu.Lock()
	m.RunCalls++
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, out)
	}

	<-ctx.Done()
	return ctx.Err()
}

// Calls returns the number of Run calls so far.
func (m *MockRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RunCalls
}

// Reset clears the call history.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunCalls = 0
}

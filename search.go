package search

import "context"

// Searcher runs parallel combinatorial searches over a polestar universe.
// At most one run is active at a time.
type Searcher interface {
	// Start begins a run for the given configuration and returns its identifier.
	//
	// Configuration errors (ErrInvalidConfig, ErrNoWork) are returned before any
	// worker starts. If a run is already active it is cancelled first: its
	// callback receives an EventCancelled and never an EventComplete.
	//
	// onEvent receives progress, item and terminal events for the new run.
	Start(ctx context.Context, cfg RunConfig, onEvent EventFunc) (RunID, error)

	// Cancel stops the active run. Results already published stay visible.
	// Returns ErrNoActiveRun if no run is active.
	Cancel(ctx context.Context) error
}

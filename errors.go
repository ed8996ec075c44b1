package search

import "errors"

var (
	// ErrInvalidConfig indicates the run configuration failed validation.
	ErrInvalidConfig = errors.New("invalid run configuration")

	// ErrNoWork indicates the configuration yields zero candidate combinations,
	// e.g. k exceeds the universe size or the universe is empty.
	ErrNoWork = errors.New("no combinations to examine")

	// ErrRunSuperseded indicates a message belongs to a run that is no longer active.
	// Such messages are dropped rather than applied.
	ErrRunSuperseded = errors.New("run superseded")

	// ErrNoActiveRun indicates a cancel was requested while no run is active.
	ErrNoActiveRun = errors.New("no active run")

	// ErrCoordinatorStopped indicates the coordinating loop is no longer running.
	ErrCoordinatorStopped = errors.New("coordinator stopped")
)

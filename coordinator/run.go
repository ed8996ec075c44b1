package coordinator

import (
	"math/big"
	"time"

	"github.com/getpup/pupsourcing/es"

	search "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/combinadic"
	"github.com/getpup/polestar-search/evaluator"
	"github.com/getpup/polestar-search/worker"
)

// Run is a prepared search: the validated configuration plus everything
// derived from it. A Run is read-only once prepared.
type Run struct {
	// ID identifies the run in every message and event.
	ID search.RunID

	// Config is the configuration the run was prepared from.
	Config search.RunConfig

	// Total is the number of candidates the run examines.
	Total *big.Int

	// Indexer converts ranks to combinations for the run's universe.
	Indexer *combinadic.Indexer

	// Evaluator holds the run's acceptance rules and domain snapshot.
	Evaluator *evaluator.Context

	// Slices partition [0, Total) in rank order, one per worker.
	Slices []search.Slice

	// PreparedAt is when the run was prepared.
	PreparedAt time.Time

	reportEvery int
	logger      es.Logger
}

// Workers returns the number of workers the run dispatches.
func (r *Run) Workers() int {
	return len(r.Slices)
}

// WorkerConfig returns the standard configuration of the worker scanning slice.
func (r *Run) WorkerConfig(slice search.Slice) worker.Config {
	return worker.Config{
		Slice:       slice,
		Indexer:     r.Indexer,
		Evaluator:   r.Evaluator,
		ReportEvery: r.reportEvery,
		Preview:     r.Config.Preview,
		Verbose:     r.Config.Verbose,
		Logger:      r.logger,
	}
}

// Package worker scans a contiguous slice of the combination index space.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/getpup/pupsourcing/es"

	search "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/combinadic"
)

// DefaultReportEvery is the number of candidates between progress messages.
const DefaultReportEvery = 100

// ErrMissingDependency indicates the worker was built without an indexer or evaluator.
var ErrMissingDependency = errors.New("worker is missing a dependency")

// Config configures a single worker.
type Config struct {
	// Slice is the range of ranks the worker examines (required).
	Slice search.Slice

	// Indexer converts the slice start into a combination (required).
	Indexer *combinadic.Indexer

	// Evaluator applies the acceptance rules (required).
	Evaluator Evaluator

	// ReportEvery is the number of candidates between progress messages (default: 100).
	ReportEvery int

	// Preview sends every accepted result as soon as it is found.
	Preview bool

	// Verbose logs every rejected candidate at debug level.
	Verbose bool

	// Logger is an optional logger for observability.
	Logger es.Logger
}

// Worker examines the candidates of one slice. Workers are never reused.
type Worker struct {
	config Config
}

// Compile-time check that Worker implements Runner.
var _ Runner = (*Worker)(nil)

// New creates a new Worker with the given configuration.
// It applies the default ReportEvery if zero or negative.
func New(cfg Config) *Worker {
	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = DefaultReportEvery
	}

	return &Worker{
		config: cfg,
	}
}

// Run examines every candidate in the slice in lexicographic order.
//
// It sends a progress message every ReportEvery candidates, an item message
// per accepted candidate when Preview is set, and exactly one terminal
// message carrying every accepted result. Cancellation is observed at each
// progress checkpoint and while blocked on a send; Run then returns ctx.Err()
// without a terminal message.
func (w *Worker) Run(ctx context.Context, out chan<- search.Message) error {
	slice := w.config.Slice
	if w.config.Indexer == nil || w.config.Evaluator == nil {
		return fmt.Errorf("worker %s: %w", slice.WorkerID, ErrMissingDependency)
	}

	started := time.Now()
	counters := search.NewCounters()
	var accepted []search.Result

	if w.config.Logger != nil {
		w.config.Logger.Debug(ctx, "worker started",
			"runID", slice.RunID, "workerID", slice.WorkerID, "start", slice.Start.String(), "length", slice.Length.String())
	}

	if slice.Length.Sign() > 0 {
		positions, err := w.config.Indexer.Unrank(slice.Start)
		if err != nil {
			return fmt.Errorf("worker %s: %w", slice.WorkerID, err)
		}

		one := big.NewInt(1)
		index := new(big.Int).Set(slice.Start)
		remaining := new(big.Int).Set(slice.Length)
		sinceReport := 0

		for {
			result, err := w.config.Evaluator.Evaluate(positions)
			counters.Examined.Add(counters.Examined, one)

			if err == nil {
				result.Index = new(big.Int).Set(index)
				counters.Accepted.Add(counters.Accepted, one)
				accepted = append(accepted, result)

				if w.config.Preview {
					item := result
					if err := w.send(ctx, out, search.Message{InProgress: true, Counters: counters.Clone(), Item: &item}); err != nil {
						return err
					}
				}
			} else if w.config.Verbose && w.config.Logger != nil {
				w.config.Logger.Debug(ctx, "candidate rejected",
					"workerID", slice.WorkerID, "index", index.String(), "positions", fmt.Sprint(positions), "reason", err)
			}

			remaining.Sub(remaining, one)
			if remaining.Sign() == 0 || !combinadic.Next(w.config.Indexer.N(), positions) {
				break
			}
			index.Add(index, one)

			sinceReport++
			if sinceReport == w.config.ReportEvery {
				sinceReport = 0
				if err := ctx.Err(); err != nil {
					return err
				}
				counters.Checkpointed.Set(counters.Examined)
				if err := w.send(ctx, out, search.Message{InProgress: true, Counters: counters.Clone()}); err != nil {
					return err
				}
			}
		}
	}

	counters.Checkpointed.Set(counters.Examined)
	elapsed := time.Since(started)

	if w.config.Logger != nil {
		w.config.Logger.Debug(ctx, "worker finished",
			"runID", slice.RunID, "workerID", slice.WorkerID, "examined", counters.Examined.String(),
			"accepted", counters.Accepted.String(), "elapsed", elapsed)
	}

	return w.send(ctx, out, search.Message{
		InProgress: false,
		Counters:   counters.Clone(),
		Items:      accepted,
		Elapsed:    elapsed,
	})
}

// send stamps the message with the slice identity and delivers it unless ctx is done first.
func (w *Worker) send(ctx context.Context, out chan<- search.Message, msg search.Message) error {
	msg.RunID = w.config.Slice.RunID
	msg.WorkerID = w.config.Slice.WorkerID

	select {
	case out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package coordinator

import (
	search "github.com/getpup/polestar-search"
	"github.com/getpup/polestar-search/worker"
)

// Hooks are the extension points a Coordinator is parameterized with.
//
// Every method is called on the coordinating goroutine. Implementations must
// return promptly and must not call Launch, Dispatch or Cancel synchronously.
type Hooks interface {
	// WorkerConfig builds the configuration of the worker that scans slice.
	WorkerConfig(run *Run, slice search.Slice) worker.Config

	// NewWorker constructs a worker. Workers are never reused across slices.
	NewWorker(cfg worker.Config) worker.Runner

	// OnProgress receives aggregated counters after every progress or terminal worker message.
	OnProgress(event search.Event)

	// OnItem receives each accepted result of a previewed run as it is found.
	OnItem(event search.Event)

	// OnComplete receives the terminal event once every worker has finished.
	OnComplete(event search.Event)

	// OnCancel receives the terminal event of a run cancelled before completion.
	OnCancel(event search.Event)
}

// DefaultHooks builds workers from the run itself and ignores every event.
// Embed it to override only the callbacks you need.
type DefaultHooks struct{}

// Compile-time check that DefaultHooks implements Hooks.
var _ Hooks = DefaultHooks{}

// WorkerConfig returns run.WorkerConfig(slice).
func (DefaultHooks) WorkerConfig(run *Run, slice search.Slice) worker.Config {
	return run.WorkerConfig(slice)
}

// NewWorker returns worker.New(cfg).
func (DefaultHooks) NewWorker(cfg worker.Config) worker.Runner {
	return worker.New(cfg)
}

func (DefaultHooks) OnProgress(search.Event) {}
func (DefaultHooks) OnItem(search.Event)     {}
func (DefaultHooks) OnComplete(search.Event) {}
func (DefaultHooks) OnCancel(search.Event)   {}

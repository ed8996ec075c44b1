package metrics

import (
	"math/big"

	search "github.com/getpup/polestar-search"
)

// Collector wraps metrics and provides helper methods with pre-filled labels.
type Collector struct {
	searcher string
}

// NewCollector creates a new Collector for the given searcher name.
func NewCollector(searcher string) *Collector {
	return &Collector{searcher: searcher}
}

// IncRunsStarted increments the runs started counter.
func (c *Collector) IncRunsStarted() {
	RunsStartedTotal.WithLabelValues(c.searcher).Inc()
}

// IncRunsCompleted increments the runs completed counter.
func (c *Collector) IncRunsCompleted() {
	RunsCompletedTotal.WithLabelValues(c.searcher).Inc()
}

// IncRunsCancelled increments the runs cancelled counter.
func (c *Collector) IncRunsCancelled() {
	RunsCancelledTotal.WithLabelValues(c.searcher).Inc()
}

// IncConfigErrors increments the rejected configurations counter.
func (c *Collector) IncConfigErrors() {
	ConfigErrorsTotal.WithLabelValues(c.searcher).Inc()
}

// IncStaleMessages increments the stale messages counter.
func (c *Collector) IncStaleMessages() {
	StaleMessagesTotal.WithLabelValues(c.searcher).Inc()
}

// IncWorkerFailures increments the worker failures counter.
func (c *Collector) IncWorkerFailures() {
	WorkerFailuresTotal.WithLabelValues(c.searcher).Inc()
}

// AddCandidates adds a finished run's examined and accepted counts.
// Values beyond float64 precision are rounded.
func (c *Collector) AddCandidates(examined, accepted *big.Int) {
	CandidatesExaminedTotal.WithLabelValues(c.searcher).Add(toFloat(examined))
	CandidatesAcceptedTotal.WithLabelValues(c.searcher).Add(toFloat(accepted))
}

// SetActiveWorkers sets the active workers gauge.
func (c *Collector) SetActiveWorkers(count int) {
	ActiveWorkers.WithLabelValues(c.searcher).Set(float64(count))
}

// SetRunProgress sets the progress gauge of the active run.
func (c *Collector) SetRunProgress(percent int64) {
	RunProgressPercent.WithLabelValues(c.searcher).Set(float64(percent))
}

// SetRunState sets the run state gauge. Sets value to 1 for the given state, 0 for others.
func (c *Collector) SetRunState(state search.RunState) {
	for _, s := range search.RunStates {
		if s == state {
			RunState.WithLabelValues(c.searcher, string(s)).Set(1)
		} else {
			RunState.WithLabelValues(c.searcher, string(s)).Set(0)
		}
	}
}

// ObserveRunDuration records the duration of a finished run.
// outcome is the terminal run state, "completed" or "cancelled".
func (c *Collector) ObserveRunDuration(outcome search.RunState, seconds float64) {
	RunDuration.WithLabelValues(c.searcher, string(outcome)).Observe(seconds)
}

func toFloat(v *big.Int) float64 {
	if v == nil || v.Sign() <= 0 {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

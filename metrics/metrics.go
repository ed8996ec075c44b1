package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RunsStartedTotal tracks the total number of runs dispatched.
var RunsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polestar_search_runs_started_total",
		Help: "Total runs dispatched",
	},
	[]string{"searcher"},
)

// RunsCompletedTotal tracks the total number of runs that examined every candidate.
var RunsCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polestar_search_runs_completed_total",
		Help: "Total runs completed",
	},
	[]string{"searcher"},
)

// RunsCancelledTotal tracks the total number of runs cancelled before completion.
var RunsCancelledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polestar_search_runs_cancelled_total",
		Help: "Total runs cancelled",
	},
	[]string{"searcher"},
)

// ConfigErrorsTotal tracks run configurations rejected before dispatch.
var ConfigErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polestar_search_config_errors_total",
		Help: "Total run configurations rejected",
	},
	[]string{"searcher"},
)

// StaleMessagesTotal tracks worker messages dropped because their run is no longer active.
var StaleMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polestar_search_stale_messages_total",
		Help: "Total worker messages dropped as stale",
	},
	[]string{"searcher"},
)

// WorkerFailuresTotal tracks workers that exited with an error.
var WorkerFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polestar_search_worker_failures_total",
		Help: "Total workers that exited with an error",
	},
	[]string{"searcher"},
)

// CandidatesExaminedTotal tracks candidates examined by finished runs.
var CandidatesExaminedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polestar_search_candidates_examined_total",
		Help: "Total candidates examined",
	},
	[]string{"searcher"},
)

// CandidatesAcceptedTotal tracks candidates accepted by finished runs.
var CandidatesAcceptedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "polestar_search_candidates_accepted_total",
		Help: "Total candidates accepted",
	},
	[]string{"searcher"},
)

// ActiveWorkers tracks the number of workers of the active run.
var ActiveWorkers = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "polestar_search_active_workers",
		Help: "Workers of the active run",
	},
	[]string{"searcher"},
)

// RunProgressPercent tracks the checkpointed percentage of the active run.
var RunProgressPercent = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "polestar_search_run_progress_percent",
		Help: "Checkpointed percentage of the active run",
	},
	[]string{"searcher"},
)

// RunState tracks the run lifecycle state (value 1 for current state, 0 otherwise).
var RunState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "polestar_search_run_state",
		Help: "Run state (1 for current state, 0 otherwise)",
	},
	[]string{"searcher", "state"},
)

// RunDuration tracks the wall-clock time of finished runs.
var RunDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "polestar_search_run_duration_seconds",
		Help:    "Wall-clock duration of finished runs",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	},
	[]string{"searcher", "outcome"},
)

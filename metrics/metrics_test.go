package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRunsStartedTotal_Increment(t *testing.T) {
	before := testutil.ToFloat64(RunsStartedTotal.WithLabelValues("test-searcher"))
	RunsStartedTotal.WithLabelValues("test-searcher").Inc()
	after := testutil.ToFloat64(RunsStartedTotal.WithLabelValues("test-searcher"))

	assert.Equal(t, before+1, after)
}

func TestStaleMessagesTotal_Increment(t *testing.T) {
	before := testutil.ToFloat64(StaleMessagesTotal.WithLabelValues("test-searcher-2"))
	StaleMessagesTotal.WithLabelValues("test-searcher-2").Inc()
	after := testutil.ToFloat64(StaleMessagesTotal.WithLabelValues("test-searcher-2"))

	assert.Equal(t, before+1, after)
}

func TestActiveWorkers_SetValue(t *testing.T) {
	ActiveWorkers.WithLabelValues("test-searcher-3").Set(5)
	value := testutil.ToFloat64(ActiveWorkers.WithLabelValues("test-searcher-3"))

	assert.Equal(t, float64(5), value)
}

func TestRunDuration_Observe(t *testing.T) {
	RunDuration.WithLabelValues("test-searcher-4", "completed").Observe(1.5)
	count := testutil.CollectAndCount(RunDuration)

	assert.Greater(t, count, 0)
}

func TestMetrics_LabelsAppliedCorrectly(t *testing.T) {
	searcher := "test-searcher-labels"

	RunsCompletedTotal.WithLabelValues(searcher).Inc()

	metricValue := testutil.ToFloat64(RunsCompletedTotal.WithLabelValues(searcher))
	assert.Greater(t, metricValue, float64(0))

	differentValue := testutil.ToFloat64(RunsCompletedTotal.WithLabelValues("test-searcher-different"))
	assert.LessOrEqual(t, differentValue, metricValue)
}

func TestMetrics_AllRegistered(t *testing.T) {
	collectors := []prometheus.Collector{
		RunsStartedTotal,
		RunsCompletedTotal,
		RunsCancelledTotal,
		ConfigErrorsTotal,
		StaleMessagesTotal,
		WorkerFailuresTotal,
		CandidatesExaminedTotal,
		CandidatesAcceptedTotal,
		ActiveWorkers,
		RunProgressPercent,
		RunState,
		RunDuration,
	}

	for _, c := range collectors {
		assert.NotNil(t, c)
		// promauto registered the collector, so registering again must fail
		err := prometheus.Register(c)
		assert.Error(t, err)
	}
}

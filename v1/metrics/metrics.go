// Package metrics provides Prometheus instrumentation for the Redlock
// Coordinator: outcome counters for the three quorum operations plus
// histograms for attempt latency and vote counts, so operators can graph
// contention and endpoint health without parsing logs.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// AcquireTotal counts acquire outcomes, labeled "success" or "failure".
	AcquireTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redlock_acquire_total",
		Help: "Total number of acquire operations by outcome",
	}, []string{"result"})
	// ExtendTotal counts extend outcomes, labeled "success" or "failure".
	ExtendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redlock_extend_total",
		Help: "Total number of extend operations by outcome",
	}, []string{"result"})
	// ReleaseTotal counts release outcomes, labeled "success" or "failure".
	ReleaseTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redlock_release_total",
		Help: "Total number of release operations by outcome",
	}, []string{"result"})
	// AttemptDuration tracks wall-clock time spent fanning out a single
	// acquire/extend attempt across all endpoints.
	AttemptDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "redlock_attempt_duration_seconds",
		Help:    "Duration of a single quorum attempt across all endpoints",
		Buckets: prometheus.DefBuckets,
	})
	// QuorumVotes tracks how many endpoints voted for an attempt, useful to
	// spot a cluster running persistently near its quorum threshold.
	QuorumVotes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "redlock_quorum_votes",
		Help:    "Number of votesFor collected per attempt",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterRedlockMetrics registers the redlock metrics on the provided
// registry. Call once per registry; a second call panics, matching
// prometheus.Registerer semantics.
func RegisterRedlockMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AcquireTotal, ExtendTotal, ReleaseTotal, AttemptDuration, QuorumVotes)
}

const (
	// ResultSuccess labels an operation that returned no error: an
	// acquire/extend that reached quorum, or a release that got at least one
	// endpoint response.
	ResultSuccess = "success"
	// ResultFailure labels an operation that returned an error.
	ResultFailure = "failure"
)

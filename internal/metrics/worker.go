package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Preparation attempts by chain and outcome
	workerPreparationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "transfer",
			Subsystem: "worker",
			Name:      "preparations_total",
			Help:      "Total number of transaction preparation attempts",
		},
		[]string{"chain", "status"}, // success, error
	)

	// Preparation latency by chain
	workerPreparationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "transfer",
			Subsystem: "worker",
			Name:      "preparation_duration_seconds",
			Help:      "Time taken to prepare a transaction request",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"chain"},
	)

	// Failures by taxonomy class
	workerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "transfer",
			Subsystem: "worker",
			Name:      "failures_total",
			Help:      "Total number of preparation failures by class",
		},
		[]string{"chain", "class"}, // input, network, insufficiency, encoding
	)

	// Last preparation timestamp
	workerLastPreparationTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "transfer",
			Subsystem: "worker",
			Name:      "last_preparation_timestamp",
			Help:      "Timestamp of last preparation attempt",
		},
	)
)

// WorkerMetrics provides methods to update preparation-worker metrics
type WorkerMetrics struct{}

// NewWorkerMetrics creates a new instance of WorkerMetrics
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{}
}

// RecordPreparation records one preparation attempt
func (wm *WorkerMetrics) RecordPreparation(chain string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	workerPreparationsTotal.WithLabelValues(chain, status).Inc()
	workerPreparationDuration.WithLabelValues(chain).Observe(duration.Seconds())
	workerLastPreparationTimestamp.Set(float64(time.Now().Unix()))
}

// RecordFailure records a preparation failure by taxonomy class
func (wm *WorkerMetrics) RecordFailure(chain, class string) {
	workerFailuresTotal.WithLabelValues(chain, class).Inc()
}

// Failure class constants for consistent labeling
const (
	FailureClassInput         = "input"
	FailureClassNetwork       = "network"
	FailureClassInsufficiency = "insufficiency"
	FailureClassEncoding      = "encoding"
)

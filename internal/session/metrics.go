package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Local rejections that never reach the backend.
const (
	outcomeInvalid = "invalid"
	outcomeBusy    = "busy"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_session_operations_total",
		Help: "Session operations by kind and outcome.",
	}, []string{"operation", "outcome"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_session_operation_duration_seconds",
		Help:    "Time from submit to settle for session operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	operationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_session_operations_in_flight",
		Help: "Session operations currently submitting.",
	})
)

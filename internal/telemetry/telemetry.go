// Package telemetry holds the process-wide Prometheus collectors.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chartOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipdash_chart_operations_total",
		Help: "Chart registry operations by kind (create, update, destroy).",
	}, []string{"op"})

	liveCharts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shipdash_live_charts",
		Help: "Number of chart handles currently registered.",
	})

	backendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipdash_backend_request_duration_seconds",
		Help:    "Latency of backend requests by endpoint and outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})

	staleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipdash_stale_responses_total",
		Help: "Backend responses dropped because a newer request was issued.",
	}, []string{"operation"})
)

// ChartOp counts one registry operation and records the live handle count.
func ChartOp(op string, live int) {
	chartOps.WithLabelValues(op).Inc()
	liveCharts.Set(float64(live))
}

// ObserveBackend records the latency of one backend call.
func ObserveBackend(endpoint, outcome string, elapsed time.Duration) {
	backendDuration.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}

// StaleResponse counts a dropped out-of-order response.
func StaleResponse(operation string) {
	staleResponses.WithLabelValues(operation).Inc()
}

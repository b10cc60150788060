package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vecfuse/internal/domain"
)

// Fusion Prometheus metrics.
var (
	FusionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecfuse",
			Name:      "fusion_requests_total",
			Help:      "Total number of fusion invocations",
		},
		[]string{"normalization", "combination", "status"},
	)

	FusionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecfuse",
			Name:      "fusion_duration_seconds",
			Help:      "Fusion invocation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"normalization", "combination"},
	)

	FusionHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vecfuse",
			Name:      "fusion_hits",
			Help:      "Number of fused hits per invocation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

var registerFusionOnce sync.Once

// RegisterFusionMetrics registers Prometheus fusion metrics. Safe to call more than once.
func RegisterFusionMetrics() {
	registerFusionOnce.Do(func() {
		prometheus.MustRegister(FusionRequestsTotal, FusionDuration, FusionHits)
	})
}

// ObserveFusion records one fusion invocation.
func ObserveFusion(normalization, combination string, hits int, duration time.Duration, err error) {
	FusionRequestsTotal.WithLabelValues(normalization, combination, Status(err)).Inc()
	FusionDuration.WithLabelValues(normalization, combination).Observe(duration.Seconds())
	if err == nil {
		FusionHits.Observe(float64(hits))
	}
}

// Status maps an error to a low-cardinality status label.
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

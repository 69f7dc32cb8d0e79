package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	resolveFailures  *prometheus.CounterVec

	metricsOnce       sync.Once
	metricsRegistered bool
)

// Init registers all Prometheus metrics. Call once at startup; recording
// functions are no-ops until then, so tests need no registry setup.
func Init() {
	metricsOnce.Do(func() {
		cacheHitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xcdash_cache_hits_total",
				Help: "Cache hits by resource class",
			},
			[]string{"resource"},
		)
		cacheMissesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xcdash_cache_misses_total",
				Help: "Cache misses by resource class",
			},
			[]string{"resource"},
		)
		upstreamDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xcdash_upstream_request_duration_seconds",
				Help:    "Duration of upstream SaaS API calls",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
			[]string{"resource"},
		)
		resolveFailures = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xcdash_credential_resolve_failures_total",
				Help: "Credential resolutions that found no usable credential",
			},
			[]string{"capability"},
		)
		metricsRegistered = true
	})
}

func RecordCacheHit(resource string) {
	if !metricsRegistered {
		return
	}
	cacheHitsTotal.WithLabelValues(resource).Inc()
}

func RecordCacheMiss(resource string) {
	if !metricsRegistered {
		return
	}
	cacheMissesTotal.WithLabelValues(resource).Inc()
}

func RecordUpstream(resource string, d time.Duration) {
	if !metricsRegistered {
		return
	}
	upstreamDuration.WithLabelValues(resource).Observe(d.Seconds())
}

func RecordResolveFailure(capability string) {
	if !metricsRegistered {
		return
	}
	resolveFailures.WithLabelValues(capability).Inc()
}

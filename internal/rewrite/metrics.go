// Prometheus instrumentation for the rewrite pipeline. Labels are kept to
// closed sets (kind, mode, status, result) so cardinality stays bounded.
package rewrite

import "github.com/prometheus/client_golang/prometheus"

var (
	// pipelineReqs counts pipeline executions by kind, mode, and outcome.
	pipelineReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewrite_requests_total",
			Help: "Total pipeline requests by kind, mode, and terminal status.",
		},
		[]string{"kind", "mode", "status"},
	)

	// generationSeconds records the duration of the offloaded generation
	// phase (chunk, generate, reassemble) by kind.
	generationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rewrite_generation_duration_seconds",
			Help:    "Duration of the offloaded generation phase in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"kind"},
	)

	// cacheLookups counts cache gateway lookups by result (hit/miss).
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewrite_cache_lookups_total",
			Help: "Cache lookups by result.",
		},
		[]string{"result"},
	)

	// degradedTotal counts requests served by the deterministic fallback
	// transform because the generation capability was unavailable.
	degradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rewrite_degraded_total",
			Help: "Requests served by the mock transform fallback.",
		},
	)
)

func init() {
	prometheus.MustRegister(pipelineReqs, generationSeconds, cacheLookups, degradedTotal)
}

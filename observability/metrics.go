// Package observability exposes Prometheus metrics for the chat pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat outcomes used as the "outcome" label on ChatRequests.
const (
	OutcomeOK         = "ok"
	OutcomeGeneration = "generation_error"
	OutcomeError      = "error"
)

// Metrics holds the counters and histograms recorded per chat turn.
type Metrics struct {
	ChatRequests          *prometheus.CounterVec
	MemoriesRetrieved     prometheus.Histogram
	GenerationLatency     prometheus.Histogram
	LongTermWriteFailures prometheus.Counter
	ContextTokens         prometheus.Histogram
}

// New registers the chat metrics on reg under the given namespace.
// Passing a fresh registry keeps tests independent.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat turns processed, labeled by outcome.",
		}, []string{"outcome"}),
		MemoriesRetrieved: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "memories_retrieved",
			Help:      "Long-term memories injected into each prompt.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		GenerationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_seconds",
			Help:      "Latency of LLM response generation.",
			Buckets:   prometheus.DefBuckets,
		}),
		LongTermWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "long_term_write_failures_total",
			Help:      "Best-effort long-term persistence failures.",
		}),
		ContextTokens: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "context_tokens",
			Help:      "Estimated token count of composed prompts.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 10),
		}),
	}
}

// Handler serves the default Prometheus registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}

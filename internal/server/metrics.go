package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// labelHandler partitions HTTP metrics by route pattern rather than raw path.
const labelHandler = "handler"

// Outcome label values.
const (
	outcomeOK        = "ok"
	outcomeNoContext = "no_context"
	outcomeError     = "error"
	outcomeRejected  = "rejected"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New so tests can inject a fresh
// prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// ingestRequestsTotal counts ingest requests by outcome: ok, rejected, error.
	ingestRequestsTotal *prometheus.CounterVec

	// ingestChunksTotal counts chunks stored through the HTTP ingest routes.
	ingestChunksTotal prometheus.Counter

	// queryRequestsTotal counts /rag/query requests by outcome:
	// ok, no_context, rejected, error.
	queryRequestsTotal *prometheus.CounterVec

	// queryDurationSeconds records the wall-clock duration of each query,
	// retrieval and model call included.
	queryDurationSeconds *prometheus.HistogramVec

	// httpRequestsTotal counts all HTTP requests handled by the router,
	// partitioned by method, route pattern, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		ingestRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragmanual",
			Subsystem: "ingest",
			Name:      "requests_total",
			Help:      "Total number of ingest requests, partitioned by outcome.",
		}, []string{"outcome"}),

		ingestChunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ragmanual",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total number of chunks stored by ingest requests.",
		}),

		queryRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragmanual",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total number of /rag/query requests, partitioned by outcome.",
		}, []string{"outcome"}),

		queryDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ragmanual",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of /rag/query requests including retrieval and generation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragmanual",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ragmanual",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}

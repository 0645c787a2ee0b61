package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/ragmanual-go/internal/assistant"
	"github.com/54b3r/ragmanual-go/internal/ingestion"
	"github.com/54b3r/ragmanual-go/internal/store"
)

// defaultMaxUploadBytes bounds ingest request bodies when Config leaves it unset.
const defaultMaxUploadBytes int64 = 64 << 20

// maxQueryBytes bounds the body of POST /rag/query.
const maxQueryBytes int64 = 64 << 10

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// cover a full ingestion or model call.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on /rag routes
	// (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on /rag routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// IngestRoot confines server-side ingest paths. Relative paths are
	// resolved against it. Empty allows any readable path.
	IngestRoot string
	// MaxUploadBytes bounds ingest request bodies. Defaults to 64 MiB.
	MaxUploadBytes int64
	// Ledger lists past ingestions for GET /rag/documents. Nil lists none.
	Ledger store.Ledger
	// Vectors reports the vector store size for GET /rag/documents. Optional.
	Vectors Counter
	// MetricsRegistry receives the server's collectors. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// Ingester runs the PDF ingestion pipeline. *ingestion.Pipeline satisfies it.
type Ingester interface {
	// IngestFile ingests a PDF already on the server's filesystem.
	IngestFile(ctx context.Context, path string) (*ingestion.Result, error)
	// Ingest ingests an uploaded PDF.
	Ingest(ctx context.Context, src ingestion.Source) (*ingestion.Result, error)
}

// Querier answers questions. *assistant.Assistant satisfies it.
type Querier interface {
	Ask(ctx context.Context, question string, mode assistant.Mode) (*assistant.Answer, error)
}

// Counter reports how many chunks the vector store holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Server is the HTTP front end of the ingestion pipeline and the assistant.
type Server struct {
	// ingester handles POST /rag/ingestPdf and /rag/ingest.
	ingester Ingester
	// querier handles /rag/query.
	querier Querier
	// cfg holds the resolved server configuration.
	cfg *Config
	// router is the chi router with every route and middleware mounted.
	router chi.Router
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// documentsResponse is the JSON body of GET /rag/documents.
type documentsResponse struct {
	// Vectors is the number of chunks in the vector store, -1 when unknown.
	Vectors int `json:"vectors"`
	// Ingestions lists recorded ingestions, newest first.
	Ingestions []store.Ingestion `json:"ingestions"`
}

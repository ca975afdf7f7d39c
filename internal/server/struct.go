package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/coursematch/internal/history"
	"github.com/54b3r/coursematch/internal/recommend"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// exceed RequestTimeout.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// RequestTimeout bounds each POST /api/recommend call end to end
	// (default: 2m).
	RequestTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks.
	Pingers []Pinger
	// History serves GET /api/history. If nil the route returns 404.
	History HistoryReader
	// RateLimit is the sustained request rate allowed per IP on
	// POST /api/recommend (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on /api/recommend and /api/history.
	// If empty, authentication is disabled.
	APIKey string
	// MetricsRegistry receives the server's collectors. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// Recommender answers a student's question. *recommend.Service satisfies it;
// tests inject a fake.
type Recommender interface {
	Recommend(ctx context.Context, question string) (*recommend.Response, error)
}

// HistoryReader lists recent exchanges. *history.Store satisfies it.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]history.Exchange, error)
}

// Server is the HTTP front end of the recommender.
type Server struct {
	recommender Recommender
	history     HistoryReader
	cfg         *Config
	httpServer  *http.Server
	log         *slog.Logger
	pingers     []Pinger
	metrics     *serverMetrics
	// stopRL stops the rate limiter's eviction goroutine on shutdown.
	stopRL func()
}

// recommendRequest is the JSON body for POST /api/recommend.
type recommendRequest struct {
	Question string `json:"question"`
}

// historyResponse is the JSON body for GET /api/history.
type historyResponse struct {
	Exchanges []history.Exchange `json:"exchanges"`
}

// errorResponse is the JSON body of every API error.
type errorResponse struct {
	Error string `json:"error"`
}

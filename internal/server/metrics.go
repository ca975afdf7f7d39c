package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "coursematch"

	// labelHandler partitions HTTP metrics by route pattern rather than raw
	// URL path.
	labelHandler = "handler"
)

// serverMetrics holds the Prometheus collectors owned by the server. Each
// Server registers its own set so tests can use an isolated registry.
type serverMetrics struct {
	// recommendTotal counts finished recommendations by outcome:
	// ok, no_match, error or timeout.
	recommendTotal *prometheus.CounterVec

	recommendDuration *prometheus.HistogramVec

	// recommendInFlight is the number of recommendations being computed.
	recommendInFlight prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpDurationSeconds *prometheus.HistogramVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		recommendTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Recommendation requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		recommendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "recommend",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of recommendation requests.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),

		recommendInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "recommend",
			Name:      "in_flight",
			Help:      "Recommendation requests currently being processed.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled, partitioned by method, handler and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}

// observeRecommend records one finished recommendation.
func (m *serverMetrics) observeRecommend(outcome string, d time.Duration) {
	m.recommendTotal.WithLabelValues(outcome).Inc()
	m.recommendDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// instrument records request counts and latency for every request served by
// mux, labelled with the matched route pattern.
func (m *serverMetrics) instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		if pattern == "" {
			pattern = "unmatched"
		}
		if pattern == "POST /api/recommend" {
			m.recommendInFlight.Inc()
			defer m.recommendInFlight.Dec()
		}

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		mux.ServeHTTP(rw, r)

		m.httpRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(rw.status)).Inc()
		m.httpDurationSeconds.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

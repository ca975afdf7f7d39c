package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// counterValue returns the value of the counter name{label=value} gathered
// from s's registry, or -1 when absent.
func counterValue(t *testing.T, s *Server, name, label, value string) float64 {
	t.Helper()
	mfs, err := s.cfg.MetricsGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return -1
}

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	srv := httptest.NewServer(promhttp.HandlerFor(s.cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("want 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
}

func Test_Metrics_RecommendOutcomes(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	s.metrics.observeRecommend(outcomeOK, 0)
	s.metrics.observeRecommend(outcomeOK, 0)
	s.metrics.observeRecommend(outcomeError, 0)

	if got := counterValue(t, s, "coursematch_recommend_requests_total", "outcome", outcomeOK); got != 2 {
		t.Errorf("ok: want 2, got %v", got)
	}
	if got := counterValue(t, s, "coursematch_recommend_requests_total", "outcome", outcomeError); got != 1 {
		t.Errorf("error: want 1, got %v", got)
	}
}

func Test_Metrics_InstrumentLabelsByPattern(t *testing.T) {
	t.Parallel()
	s := newTestServer()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	h := s.metrics.instrument(mux)

	for _, path := range []string{"/api/health", "/nope"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := counterValue(t, s, "coursematch_http_requests_total", labelHandler, "GET /api/health"); got != 1 {
		t.Errorf("health: want 1, got %v", got)
	}
	if got := counterValue(t, s, "coursematch_http_requests_total", labelHandler, "unmatched"); got != 1 {
		t.Errorf("unmatched: want 1, got %v", got)
	}
}

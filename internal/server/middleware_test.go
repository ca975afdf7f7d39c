package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/54b3r/coursematch/internal/logging"
)

func TestRequestLogger_RequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"echoed when sent", "abc-123", true},
		{"replaced when oversized", strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var sawLogger bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sawLogger = logging.FromContext(r.Context()) != nil
				w.WriteHeader(http.StatusTeapot)
			})
			h := requestLogger(slog.New(slog.DiscardHandler), next)

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			if tt.incoming != "" {
				req.Header.Set(requestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got == "" {
				t.Fatal("missing request ID header")
			}
			if tt.keep && got != tt.incoming {
				t.Errorf("want %q echoed, got %q", tt.incoming, got)
			}
			if !tt.keep && got == tt.incoming {
				t.Errorf("want a generated ID, got %q", got)
			}
			if !sawLogger {
				t.Error("handler context has no logger")
			}
			if w.Code != http.StatusTeapot {
				t.Errorf("status: want 418, got %d", w.Code)
			}
		})
	}
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.status != http.StatusNotFound {
		t.Errorf("want 404, got %d", rw.status)
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/54b3r/coursematch/internal/logging"
	"github.com/54b3r/coursematch/internal/rag"
	"github.com/54b3r/coursematch/internal/recommend"
)

const (
	// maxRequestBody caps POST /api/recommend bodies.
	maxRequestBody = 64 << 10

	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Recommendation outcomes recorded in metrics.
const (
	outcomeOK      = "ok"
	outcomeNoMatch = "no_match"
	outcomeError   = "error"
	outcomeTimeout = "timeout"
)

// handleRecommend handles POST /api/recommend.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.recommender.Recommend(ctx, req.Question)
	if err != nil {
		status, outcome, msg := classifyError(ctx, err)
		s.metrics.observeRecommend(outcome, time.Since(start))
		log.Error("recommend failed",
			slog.String("outcome", outcome),
			slog.Int("status", status),
			slog.Any("error", err),
		)
		writeError(w, status, msg)
		return
	}

	outcome := outcomeOK
	if resp.Answer == recommend.NoMatchAnswer && len(resp.Sources) == 0 {
		outcome = outcomeNoMatch
	}
	s.metrics.observeRecommend(outcome, time.Since(start))
	log.Info("recommend complete",
		slog.String("outcome", outcome),
		slog.Int("sources", len(resp.Sources)),
		slog.Duration("duration", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, resp, log)
}

// classifyError maps a recommend failure to an HTTP status, a metrics
// outcome and a client-safe message.
func classifyError(ctx context.Context, err error) (status int, outcome, msg string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return http.StatusGatewayTimeout, outcomeTimeout, "recommendation timed out"
	case errors.Is(err, recommend.ErrEmptyQuestion):
		return http.StatusBadRequest, outcomeError, "question is required"
	case errors.Is(err, rag.ErrEmbeddingService):
		return http.StatusServiceUnavailable, outcomeError, "embedding service unavailable"
	case errors.Is(err, rag.ErrIndexUnavailable):
		return http.StatusServiceUnavailable, outcomeError, "course index unavailable"
	case errors.Is(err, recommend.ErrGeneration):
		return http.StatusBadGateway, outcomeError, "answer generation failed"
	default:
		return http.StatusInternalServerError, outcomeError, "internal error"
	}
}

// handleHistory handles GET /api/history?limit=n.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	exchanges, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.Error("history read failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Exchanges: exchanges}, log)
}

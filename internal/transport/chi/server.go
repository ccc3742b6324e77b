// Package chi exposes the HTTP API: lexical search, question answering,
// health, and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/citydesk/planqa/internal/domain"
	answeruc "github.com/citydesk/planqa/internal/usecase/answer"
	healthuc "github.com/citydesk/planqa/internal/usecase/health"
	searchuc "github.com/citydesk/planqa/internal/usecase/search"
)

// Server holds the HTTP handlers.
type Server struct {
	search  *searchuc.Service
	answer  *answeruc.Service
	health  *healthuc.Service
	version string
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	answer *answeruc.Service,
	health *healthuc.Service,
	version string,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:  search,
		answer:  answer,
		health:  health,
		version: version,
		logger:  logger,
	}
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.SearchPassages)
	r.Post("/v1/ask", s.Ask)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchPassages handles POST /v1/search.
func (s *Server) SearchPassages(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	groups, err := s.search.Search(req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	total := 0
	for _, g := range groups {
		total += len(g.Members)
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Groups: groupsToDTO(groups),
		Total:  total,
	})
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.answer.Ask(r.Context(), answeruc.Request{
		Question:   req.Question,
		Candidates: passagesFromInput(req.Candidates),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:                resp.Answer,
		Passages:              askPassagesToDTO(resp.Passages),
		UsedSemanticReranking: resp.UsedSemanticReranking,
		TotalTokens:           resp.TotalTokens,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: s.version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, CodeValidationFailed, safeDomainMessage(err))
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, CodeRateLimited, safeDomainMessage(err))
	case errors.Is(err, domain.ErrGenerationProviderError):
		s.logger.Warn("generation provider error", zap.Error(err))
		writeError(w, http.StatusBadGateway, CodeGenerationProviderError, safeDomainMessage(err))
	default:
		s.logger.Error("internal error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
	}
}

// safeDomainMessage returns the sentinel message without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuestion,
		domain.ErrTooManyCandidates,
		domain.ErrNoValidCandidates,
		domain.ErrRateLimited,
		domain.ErrGenerationProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

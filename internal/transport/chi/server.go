// Package chi exposes the resolution service over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/domain"
	healthuc "github.com/keplerlabs/kepler/internal/usecase/health"
	resolveuc "github.com/keplerlabs/kepler/internal/usecase/resolve"
)

// Error codes returned in JSON error bodies.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeEmptyQuery    = "empty_query"
	ErrCodeInternalError = "internal_error"
)

const maxQueryLen = 2000

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResolveRequest is the POST /v1/resolve body.
type ResolveRequest struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results,omitempty"`
}

// CandidateItem is one evidence unit in a resolve response.
type CandidateItem struct {
	Content        string    `json:"content"`
	Title          string    `json:"title,omitempty"`
	Source         string    `json:"source"`
	Origin         string    `json:"origin"`
	URL            string    `json:"url,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	RetrievedAt    time.Time `json:"retrieved_at"`
}

// BreakdownItem mirrors the routing breakdown for observability.
type BreakdownItem struct {
	DomainRelevance    float64 `json:"domain_relevance"`
	LocalQuality       float64 `json:"local_quality"`
	CombinedConfidence float64 `json:"combined_confidence"`
	Decision           string  `json:"decision"`
	Reason             string  `json:"reason"`
}

// ResolveResponse is the POST /v1/resolve result.
type ResolveResponse struct {
	Candidates    []CandidateItem `json:"candidates"`
	Breakdown     BreakdownItem   `json:"breakdown"`
	LowConfidence bool            `json:"low_confidence"`
}

// HealthResponse is the GET /healthz result.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Server handles the HTTP API.
type Server struct {
	resolve *resolveuc.Service
	health  *healthuc.Service
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(resolve *resolveuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{resolve: resolve, health: health, logger: logger}
}

// Routes mounts the API handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/resolve", s.Resolve)
	r.Get("/healthz", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

// Resolve handles POST /v1/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Query) > maxQueryLen {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Query too long")
		return
	}

	res, err := s.resolve.Resolve(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	candidates := res.Candidates
	if req.MaxResults != nil && *req.MaxResults > 0 && len(candidates) > *req.MaxResults {
		candidates = candidates[:*req.MaxResults]
	}

	items := make([]CandidateItem, len(candidates))
	for i, c := range candidates {
		items[i] = CandidateItem{
			Content:        c.Content,
			Title:          c.Title,
			Source:         c.SourceLabel,
			Origin:         string(c.Origin),
			URL:            c.URL,
			RelevanceScore: c.RelevanceScore,
			RetrievedAt:    c.RetrievedAt,
		}
	}

	writeJSON(w, http.StatusOK, ResolveResponse{
		Candidates: items,
		Breakdown: BreakdownItem{
			DomainRelevance:    res.Breakdown.DomainRelevance,
			LocalQuality:       res.Breakdown.LocalQuality,
			CombinedConfidence: res.Breakdown.CombinedConfidence,
			Decision:           string(res.Breakdown.Decision),
			Reason:             res.Breakdown.Reason,
		},
		LowConfidence: res.LowConfidence,
	})
}

// HealthCheck handles GET /healthz.
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
		Status: string(report.Status),
		Checks: checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, ErrCodeEmptyQuery, domain.ErrEmptyQuery.Error())
		return
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// Package resolve orchestrates one query resolution: score the query, route
// it between local and external retrieval, and combine the evidence.
package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/domain"
	"github.com/keplerlabs/kepler/internal/logger"
	"github.com/keplerlabs/kepler/internal/metrics"
	"github.com/keplerlabs/kepler/internal/usecase/combine"
	"github.com/keplerlabs/kepler/internal/usecase/routing"
)

// Config bounds per-query retrieval.
type Config struct {
	MaxLocalResults int
	MaxWebResults   int
	Thresholds      routing.Thresholds
	Combine         combine.Config
}

// DefaultConfig returns the standard resolution bounds.
func DefaultConfig() Config {
	return Config{
		MaxLocalResults: 5,
		MaxWebResults:   5,
		Thresholds:      routing.DefaultThresholds(),
		Combine:         combine.DefaultConfig(),
	}
}

// Resolution is the outcome of one query: ordered evidence plus the routing
// breakdown. LowConfidence marks best-effort sets whose top score fell below
// the result floor, so the answer layer can respond "not enough information".
type Resolution struct {
	Candidates    []domain.Candidate
	Breakdown     domain.ScoreBreakdown
	LowConfidence bool
}

// Service resolves queries. Recoverable collaborator failures (local
// retriever down, external search empty) degrade to smaller evidence sets;
// only an empty query is an error.
type Service struct {
	local  LocalRetriever
	web    WebSearcher
	scorer Scorer
	cfg    Config
}

// New creates a resolution service.
func New(local LocalRetriever, web WebSearcher, scorer Scorer, cfg Config) *Service {
	return &Service{local: local, web: web, scorer: scorer, cfg: cfg}
}

// Resolve routes one query and returns its combined evidence.
func (s *Service) Resolve(ctx context.Context, query string) (Resolution, error) {
	if strings.TrimSpace(query) == "" {
		return Resolution{}, domain.ErrEmptyQuery
	}
	log := logger.FromContext(ctx)

	domainRelevance := s.scorer.DomainRelevance(ctx, query)

	local, err := s.local.Retrieve(ctx, query, s.cfg.MaxLocalResults)
	if err != nil {
		// Local retrieval failure is recoverable: score as zero evidence and
		// let the policy route to external search.
		log.Warn("Local retrieval failed", zap.Error(err))
		local = nil
	}

	breakdown := routing.Decide(routing.Inputs{
		DomainRelevance: domainRelevance,
		LocalQuality:    s.scorer.ResultQuality(query, local),
		CountAdequacy:   s.scorer.CountAdequacy(len(local)),
		LocalCount:      len(local),
	}, s.cfg.Thresholds)
	metrics.RoutingDecisionsTotal.WithLabelValues(string(breakdown.Decision)).Inc()

	var web []domain.Candidate
	if breakdown.Decision != domain.DecisionLocalOnly {
		web = s.web.Search(ctx, query, s.cfg.MaxWebResults)
	}
	if breakdown.Decision == domain.DecisionWebOnly {
		local = nil
	}

	combined := combine.Combine(local, web, s.cfg.Combine)
	if combined.LowConfidence {
		metrics.LowConfidenceTotal.Inc()
	}

	log.Info("Query resolved",
		zap.String("decision", string(breakdown.Decision)),
		zap.String("reason", breakdown.Reason),
		zap.Float64("domain_relevance", breakdown.DomainRelevance),
		zap.Float64("combined_confidence", breakdown.CombinedConfidence),
		zap.Int("candidates", len(combined.Candidates)),
		zap.Bool("low_confidence", combined.LowConfidence),
	)

	return Resolution{
		Candidates:    combined.Candidates,
		Breakdown:     breakdown,
		LowConfidence: combined.LowConfidence,
	}, nil
}

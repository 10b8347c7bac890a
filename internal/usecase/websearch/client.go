// Package websearch implements the live external search path: a structured
// instant-answer attempt, a results-page scrape fallback, per-page content
// extraction, caching and outbound rate limiting.
package websearch

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/domain"
	"github.com/keplerlabs/kepler/internal/metrics"
)

const providerName = "duckduckgo"

// Config carries the external-search settings.
type Config struct {
	InstantURL      string
	HTMLURL         string
	UserAgent       string
	MaxResults      int
	FetchTimeout    time.Duration
	MaxContentChars int
}

// Client performs external searches. All failure modes degrade to an empty
// candidate list; Search never returns an error so callers fall through to
// local-only behavior instead of failing the request.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      ResultCache
	limiter    waiter
	logger     *zap.Logger
}

// NewClient creates an external search client.
func NewClient(cfg Config, httpClient *http.Client, cache ResultCache, limiter waiter, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.FetchTimeout}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		cache:      cache,
		limiter:    limiter,
		logger:     logger,
	}
}

// Search returns up to maxResults candidates for the query. The cache is
// consulted first; on a miss it tries the instant-answer endpoint, then the
// results-page scrape. Non-empty results are cached. A maxResults of zero or
// less falls back to the configured default.
func (c *Client) Search(ctx context.Context, query string, maxResults int) []domain.Candidate {
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}

	if cached, ok := c.cache.Get(ctx, query); ok {
		if len(cached) > maxResults {
			cached = cached[:maxResults]
		}
		return cached
	}

	if err := c.limiter.Wait(ctx, providerName); err != nil {
		c.logger.Warn("Search aborted while rate limited", zap.Error(err))
		return nil
	}

	candidates := c.searchInstant(ctx, query)
	if len(candidates) == 0 {
		candidates = c.searchScrape(ctx, query, maxResults)
	}

	if len(candidates) > 0 {
		c.cache.Set(ctx, query, candidates)
	}
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	return candidates
}

func (c *Client) searchInstant(ctx context.Context, query string) []domain.Candidate {
	start := time.Now()
	candidates, err := c.tryInstant(ctx, query)
	metrics.WebSearchRequestDuration.WithLabelValues("instant").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WebSearchRequestsTotal.WithLabelValues("instant", "error").Inc()
		c.logger.Debug("Instant answer attempt failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	metrics.WebSearchRequestsTotal.WithLabelValues("instant", "success").Inc()
	return candidates
}

func (c *Client) searchScrape(ctx context.Context, query string, maxResults int) []domain.Candidate {
	start := time.Now()
	candidates, err := c.scrape(ctx, query, maxResults)
	metrics.WebSearchRequestDuration.WithLabelValues("scrape").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WebSearchRequestsTotal.WithLabelValues("scrape", "error").Inc()
		c.logger.Warn("Search scrape failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	metrics.WebSearchRequestsTotal.WithLabelValues("scrape", "success").Inc()
	return candidates
}

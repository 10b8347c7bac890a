// Package webcache memoizes external-search results in a key-value store so
// repeated queries skip the network entirely.
package webcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/db"
	"github.com/keplerlabs/kepler/internal/domain"
)

const cacheKeyPrefix = "kepler:web_cache:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores candidate lists keyed by the normalized query. Entries expire
// via the store's TTL; corrupt or missing entries read as misses. Writes are
// last-writer-wins, which is safe because duplicate writes for the same query
// hold equivalent payloads.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached candidates for a query, if present and unexpired.
func (c *Cache) Get(ctx context.Context, query string) ([]domain.Candidate, bool) {
	key := cacheKey(query)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read web cache", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	var row entryRow
	if err := json.Unmarshal(data, &row); err != nil {
		c.logger.Warn("Failed to parse cached results", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	return candidatesFromRows(row.Results), true
}

// Set stores candidates for a query with the configured TTL. Failures are
// logged, never surfaced: a broken cache degrades to live searches.
func (c *Cache) Set(ctx context.Context, query string, candidates []domain.Candidate) {
	row := entryRow{
		Results:  candidatesToRows(candidates),
		CachedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(row)
	if err != nil {
		c.logger.Warn("Failed to serialize results for cache", zap.Error(err))
		return
	}

	if err := c.store.SetWithTTL(ctx, cacheKey(query), data, c.ttl); err != nil {
		c.logger.Warn("Failed to write web cache", zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the normalized query: trimmed, lowercased, inner whitespace
// collapsed, so trivially different spellings share an entry.
func cacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	h := sha256.Sum256([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

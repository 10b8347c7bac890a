package websearch

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/domain"
)

// mockCache is an in-memory ResultCache recording Set calls.
type mockCache struct {
	mu      sync.Mutex
	entries map[string][]domain.Candidate
	setN    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]domain.Candidate)}
}

func (m *mockCache) Get(_ context.Context, query string) ([]domain.Candidate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entries[strings.ToLower(query)]
	return c, ok
}

func (m *mockCache) Set(_ context.Context, query string, candidates []domain.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[strings.ToLower(query)] = candidates
	m.setN++
}

func (m *mockCache) setCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setN
}

// noopLimiter never waits.
type noopLimiter struct{}

func (noopLimiter) Wait(context.Context, string) error { return nil }

func testLogger() *zap.Logger { return zap.NewNop() }

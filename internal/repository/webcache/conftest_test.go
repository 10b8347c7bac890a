package webcache

import (
	"context"
	"time"

	"github.com/keplerlabs/kepler/internal/db"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn   func(ctx context.Context, key string) ([]byte, error)
	setFn   func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	lastKey string
	lastTTL time.Duration
	written []byte
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.lastKey = key
	m.lastTTL = ttl
	m.written = value
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

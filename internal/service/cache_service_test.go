package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	markers map[string]time.Duration
	err     error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}, markers: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
		delete(m.markers, key)
	}
	return m.err
}

func (m *memoryCacheRepo) Mark(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.markers[key] = ttl
	return nil
}

func (m *memoryCacheRepo) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.markers[key]
	return ok, nil
}

func TestCacheServiceGetSetInvalidate(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out map[string]int
	hit, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, 0))
	hit, err = cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, out["a"])

	require.NoError(t, cache.Invalidate(ctx, "k"))
	hit, _ = cache.Get(ctx, "k", &out)
	assert.False(t, hit)

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.CacheHits)
	assert.EqualValues(t, 2, snap.CacheMisses)
}

func TestCacheServiceMarkers(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	assert.False(t, cache.Marked(ctx, "deny:abc"))
	require.NoError(t, cache.Mark(ctx, "deny:abc", time.Hour))
	assert.True(t, cache.Marked(ctx, "deny:abc"))
	assert.Equal(t, time.Hour, repo.markers["deny:abc"])

	repo.err = errors.New("redis down")
	assert.False(t, cache.Marked(ctx, "deny:abc"))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1, 0))
	assert.Empty(t, repo.entries)
	var out int
	hit, err := cache.Get(ctx, "k", &out)
	assert.NoError(t, err)
	assert.False(t, hit)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.NoError(t, nilCache.Invalidate(ctx, "k"))
}

func TestCacheServiceGetError(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.err = errors.New("redis down")
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	var out int
	hit, err := cache.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

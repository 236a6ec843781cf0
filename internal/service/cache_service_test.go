package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func TestCachedLoadsOnceWhenEnabled(t *testing.T) {
	cache := NewCacheService(newMemoryCache(), NewMetricsService(), time.Minute, nil, true)
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"math", "physics"}, nil
	}

	first, err := cached(context.Background(), cache, cacheKeyPopularSubjects, load)
	require.NoError(t, err)
	second, err := cached(context.Background(), cache, cacheKeyPopularSubjects, load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	cache.Forget(context.Background(), cacheKeyPopularSubjects)
	_, err = cached(context.Background(), cache, cacheKeyPopularSubjects, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachedBypassesDisabledCache(t *testing.T) {
	for _, cache := range []*CacheService{nil, NewCacheService(newMemoryCache(), nil, 0, nil, false)} {
		calls := 0
		load := func(context.Context) (int, error) {
			calls++
			return 42, nil
		}
		for i := 0; i < 2; i++ {
			v, err := cached(context.Background(), cache, cacheKeyResearchStats, load)
			require.NoError(t, err)
			assert.Equal(t, 42, v)
		}
		assert.Equal(t, 2, calls)
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	boom := errors.New("db down")

	_, err := cached(context.Background(), cache, cacheKeyResearchStats, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.data)
}

func TestInvalidateRemovesPattern(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, cacheKeyResearchStats, 1, 0))
	require.NoError(t, cache.Set(ctx, cacheKeyPopularResearch, 2, 0))
	require.NoError(t, cache.Set(ctx, cacheKeyMaterialStats, 3, 0))

	require.NoError(t, cache.Invalidate(ctx, cacheKeyResearchStats+"*"))
	assert.Len(t, store.data, 1)
	_, ok := store.data[cacheKeyMaterialStats]
	assert.True(t, ok)
}

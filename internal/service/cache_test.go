package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/fleetcore/internal/service"
)

func TestCache_FetchesOnceUntilInvalidated(t *testing.T) {
	var cache service.Cache[int64]
	fetches := 0
	fetch := func(context.Context) (int64, error) {
		fetches++
		return 7, nil
	}

	for i := 0; i < 3; i++ {
		v, err := cache.GetOrFetch(context.Background(), fetch)
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	}
	assert.Equal(t, 1, fetches)

	cache.Invalidate()
	_, err := cache.GetOrFetch(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}

func TestCache_FailedFetchCachesNothing(t *testing.T) {
	var cache service.Cache[int64]
	boom := errors.New("boom")
	_, err := cache.GetOrFetch(context.Background(), func(context.Context) (int64, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := cache.GetOrFetch(context.Background(), func(context.Context) (int64, error) {
		return 9, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), v)
}

func TestCache_ConcurrentReadersFetchOnce(t *testing.T) {
	var cache service.Cache[int64]
	fetches := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.GetOrFetch(context.Background(), func(context.Context) (int64, error) {
				fetches++
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, int64(42), v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fetches)
}

func TestCacheRegistry_SameNameSharesOneCache(t *testing.T) {
	registry := service.NewCacheRegistry()

	a := service.RegisterCache[int64](registry, "zones.default-id")
	b := service.RegisterCache[int64](registry, "zones.default-id")
	assert.Same(t, a, b)
}

func TestCacheRegistry_CloseInvalidatesEverything(t *testing.T) {
	registry := service.NewCacheRegistry()
	cache := service.RegisterCache[int64](registry, "agents.signing-key")

	fetches := 0
	fetch := func(context.Context) (int64, error) {
		fetches++
		return 1, nil
	}
	_, err := cache.GetOrFetch(context.Background(), fetch)
	require.NoError(t, err)

	registry.Close()

	_, err = cache.GetOrFetch(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}

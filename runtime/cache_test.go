package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gores/observability"
)

func TestValueCacheLRU(t *testing.T) {
	vc := NewValueCache(2, 1<<20, 0)
	require.NoError(t, vc.set("a", map[string]any{"v": "a"}))
	require.NoError(t, vc.set("b", map[string]any{"v": "b"}))

	_, ok := vc.get("a")
	require.True(t, ok)
	require.NoError(t, vc.set("c", map[string]any{"v": "c"}))

	_, ok = vc.get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	got, ok := vc.get("a")
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"v": "a"}, got)
	assert.Equal(t, 2, vc.Stats().Entries)

	vc.Clear()
	assert.Equal(t, CacheStats{}, vc.Stats())
}

func TestValueCacheSizeAndTTL(t *testing.T) {
	t.Run("size", func(t *testing.T) {
		vc := NewValueCache(10, 20, 0)
		require.NoError(t, vc.set("a", map[string]any{"v": "0123456789"}))
		require.NoError(t, vc.set("b", map[string]any{"v": "0123456789"}))
		assert.Equal(t, 1, vc.Stats().Entries)
		assert.LessOrEqual(t, vc.Stats().SizeBytes, int64(20))
	})

	t.Run("update", func(t *testing.T) {
		vc := NewValueCache(10, 1<<20, 0)
		require.NoError(t, vc.set("a", map[string]any{"v": "long value"}))
		require.NoError(t, vc.set("a", map[string]any{"v": 1.0}))
		assert.Equal(t, int64(len(`{"v":1}`)), vc.Stats().SizeBytes)
	})

	t.Run("ttl", func(t *testing.T) {
		vc := NewValueCache(10, 1<<20, time.Millisecond)
		require.NoError(t, vc.set("a", map[string]any{"v": "a"}))
		time.Sleep(5 * time.Millisecond)
		_, ok := vc.get("a")
		assert.False(t, ok)
		assert.Zero(t, vc.Stats().Entries)
	})
}

func TestCachingResolver(t *testing.T) {
	m := newManager(t,
		candidate("app.greeting", map[string]string{"language": "fr"}, map[string]any{"text": "Bonjour"}),
		candidate("app.greeting", nil, map[string]any{"text": "Hello"}),
	)
	cr, err := NewCachingResolver(m, NewValueCache(16, 1<<20, 0), nil)
	require.NoError(t, err)
	ctx := context.Background()

	hits := func() float64 {
		v, err := observability.GetCounterValue(observability.ResolverCacheTotal, "value", observability.ResultHit)
		require.NoError(t, err)
		return v
	}
	before := hits()

	got, err := cr.Resolve(ctx, map[string]string{"language": "fr-CA"}, "app.greeting")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", got["text"])

	// callers own returned values
	got["text"] = "changed"
	again, err := cr.Resolve(ctx, map[string]string{"language": "fr-CA"}, "app.greeting")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", again["text"])
	assert.Equal(t, 1.0, hits()-before)

	other, err := cr.Resolve(ctx, nil, "app.greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello", other["text"])

	_, err = cr.Resolve(ctx, map[string]string{"device": "phone"}, "app.greeting")
	assert.Error(t, err)
	_, err = cr.Resolve(ctx, nil, "app.missing")
	assert.Error(t, err)
	assert.Equal(t, 2, cr.cache.Stats().Entries)

	_, err = NewCachingResolver(nil, NewValueCache(1, 1, 0), nil)
	assert.Error(t, err)
	_, err = NewCachingResolver(m, nil, nil)
	assert.Error(t, err)
}

func TestCachingResolverConcurrent(t *testing.T) {
	m := newManager(t,
		candidate("app.greeting", map[string]string{"language": "fr"}, map[string]any{"text": "Bonjour"}),
		candidate("app.greeting", nil, map[string]any{"text": "Hello"}),
	)
	cr, err := NewCachingResolver(m, NewValueCache(16, 1<<20, 0), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lang := "fr"
			if i%2 == 0 {
				lang = "en"
			}
			_, err := cr.Resolve(context.Background(), map[string]string{"language": lang}, "app.greeting")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

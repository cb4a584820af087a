package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache(size int) (*CacheRepository, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := NewCacheRepository(size)
	repo.now = clock.now
	return repo, clock
}

func TestCacheRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestCache(0)

	_, err := repo.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, repo.Delete(ctx, "k"))
	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestCacheRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	repo, clock := newTestCache(0)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))
	clock.t = clock.t.Add(59 * time.Second)
	_, err := repo.Get(ctx, "k")
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Second)
	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	assert.Zero(t, repo.Len())
}

func TestCacheRepository_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	repo, clock := newTestCache(0)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), 0))
	clock.t = clock.t.Add(23 * time.Hour)
	_, err := repo.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestCacheRepository_StoredValueIsCopied(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestCache(0)

	buf := []byte("abc")
	require.NoError(t, repo.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestCacheRepository_EvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	repo, clock := newTestCache(2)

	require.NoError(t, repo.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, repo.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, repo.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, repo.Len())
	_, err := repo.Get(ctx, "short")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	// Overwriting an existing key never evicts
	require.NoError(t, repo.Set(ctx, "long", []byte("2b"), time.Hour))
	assert.Equal(t, 2, repo.Len())

	clock.t = clock.t.Add(2 * time.Hour)
	require.NoError(t, repo.Set(ctx, "fresh", []byte("4"), time.Hour))
	assert.Equal(t, 1, repo.Len())
}

func TestCacheRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			for j := 0; j < 100; j++ {
				_ = repo.Set(ctx, key, []byte{byte(j)}, time.Minute)
				_, _ = repo.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, repo.Len(), 16)
}

package cache

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutriswap/recommender/internal/infrastructure/config"
	"github.com/nutriswap/recommender/internal/infrastructure/persistence/memory"
	"github.com/nutriswap/recommender/internal/ports/outbound"
	"github.com/nutriswap/recommender/test/testutils"
)

func TestCachedPeerProvider_LoadsOnceWithinTTL(t *testing.T) {
	ctx := context.Background()
	peers := []outbound.SimilarUser{{UserID: "a", CommonProductCount: 5}, {UserID: "b", CommonProductCount: 3}}

	next := new(testutils.MockPeerProvider)
	next.On("GetSimilarUsers", mock.Anything, "me").Return(peers, nil).Once()

	provider := NewCachedPeerProvider(next, memory.NewCacheRepository(0), time.Minute, zaptest.NewLogger(t))

	first, err := provider.GetSimilarUsers(ctx, "me")
	require.NoError(t, err)
	second, err := provider.GetSimilarUsers(ctx, "me")
	require.NoError(t, err)

	assert.Equal(t, peers, first)
	assert.Equal(t, peers, second)
	next.AssertExpectations(t)
}

func TestCachedPeerProvider_Invalidate(t *testing.T) {
	ctx := context.Background()
	next := new(testutils.MockPeerProvider)
	next.On("GetSimilarUsers", mock.Anything, "me").Return([]outbound.SimilarUser{}, nil).Twice()

	provider := NewCachedPeerProvider(next, memory.NewCacheRepository(0), time.Minute, zaptest.NewLogger(t))

	_, err := provider.GetSimilarUsers(ctx, "me")
	require.NoError(t, err)
	require.NoError(t, provider.Invalidate(ctx, "me"))
	_, err = provider.GetSimilarUsers(ctx, "me")
	require.NoError(t, err)

	next.AssertExpectations(t)
}

func TestCachedPeerProvider_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")
	next := new(testutils.MockPeerProvider)
	next.On("GetSimilarUsers", mock.Anything, "me").Return(nil, boom).Once()
	next.On("GetSimilarUsers", mock.Anything, "me").Return([]outbound.SimilarUser{{UserID: "a", CommonProductCount: 4}}, nil).Once()

	provider := NewCachedPeerProvider(next, memory.NewCacheRepository(0), time.Minute, zaptest.NewLogger(t))

	_, err := provider.GetSimilarUsers(ctx, "me")
	assert.ErrorIs(t, err, boom)

	got, err := provider.GetSimilarUsers(ctx, "me")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCachedPeerProvider_CorruptEntryReloads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCacheRepository(0)
	require.NoError(t, store.Set(ctx, peerKey("me"), []byte("{not json"), time.Minute))

	next := new(testutils.MockPeerProvider)
	next.On("GetSimilarUsers", mock.Anything, "me").Return([]outbound.SimilarUser{}, nil).Once()

	provider := NewCachedPeerProvider(next, store, time.Minute, zaptest.NewLogger(t))
	got, err := provider.GetSimilarUsers(ctx, "me")

	require.NoError(t, err)
	assert.Empty(t, got)
	next.AssertExpectations(t)
}

func TestCachedPeerProvider_PurchaseScorePassesThrough(t *testing.T) {
	next := new(testutils.MockPeerProvider)
	next.On("GetPurchaseScore", mock.Anything, "me", "123").Return(0.7, nil)

	provider := NewCachedPeerProvider(next, memory.NewCacheRepository(0), time.Minute, zaptest.NewLogger(t))
	score, err := provider.GetPurchaseScore(context.Background(), "me", "123")

	require.NoError(t, err)
	assert.Equal(t, 0.7, score)
}

func TestTieredCache_PromotesFromRemote(t *testing.T) {
	ctx := context.Background()
	local := memory.NewCacheRepository(0)
	remote := memory.NewCacheRepository(0)
	require.NoError(t, remote.Set(ctx, "k", []byte("v"), time.Hour))

	tiered := NewTieredCache(local, remote, time.Minute, zaptest.NewLogger(t))

	got, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	fromLocal, err := local.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), fromLocal)
}

func TestTieredCache_WritesBothAndDeletesBoth(t *testing.T) {
	ctx := context.Background()
	local := memory.NewCacheRepository(0)
	remote := memory.NewCacheRepository(0)
	tiered := NewTieredCache(local, remote, time.Minute, zaptest.NewLogger(t))

	require.NoError(t, tiered.Set(ctx, "k", []byte("v"), time.Hour))
	_, err := local.Get(ctx, "k")
	assert.NoError(t, err)
	_, err = remote.Get(ctx, "k")
	assert.NoError(t, err)

	require.NoError(t, tiered.Delete(ctx, "k"))
	_, err = tiered.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestTieredCache_RemoteErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	remote := new(testutils.MockCacheRepository)
	remote.On("Get", mock.Anything, "k").Return(nil, boom)

	tiered := NewTieredCache(memory.NewCacheRepository(0), remote, time.Minute, zaptest.NewLogger(t))
	_, err := tiered.Get(ctx, "k")

	assert.ErrorIs(t, err, boom)
}

func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        1,
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), unreachableRedis(), zaptest.NewLogger(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisCacheRepository_ConnectionErrorIsNotAMiss(t *testing.T) {
	cfg := unreachableRedis()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})
	defer client.Close()

	repo := NewRedisCacheRepository(client, "nutriswap", zaptest.NewLogger(t))
	_, err := repo.Get(context.Background(), "k")

	require.Error(t, err)
	assert.False(t, errors.Is(err, outbound.ErrCacheMiss))
	assert.Equal(t, "nutriswap:k", repo.key("k"))
	assert.Equal(t, "k", NewRedisCacheRepository(client, "", zaptest.NewLogger(t)).key("k"))
}

// liveRedis connects to NUTRISWAP_TEST_REDIS_HOST:NUTRISWAP_TEST_REDIS_PORT,
// defaulting to 127.0.0.1:6379, and skips the test when nothing answers
func liveRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis test in short mode")
	}
	cfg := config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        6379,
		MaxRetries:  -1,
		DialTimeout: 500 * time.Millisecond,
	}
	if host := os.Getenv("NUTRISWAP_TEST_REDIS_HOST"); host != "" {
		cfg.Host = host
	}
	if port, err := strconv.Atoi(os.Getenv("NUTRISWAP_TEST_REDIS_PORT")); err == nil {
		cfg.Port = port
	}

	client, err := NewRedisClient(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCacheRepository_RoundTrip(t *testing.T) {
	client := liveRedis(t)
	ctx := context.Background()
	prefix := "nutriswap-test-" + uuid.NewString()
	repo := NewRedisCacheRepository(client, prefix, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = repo.Delete(context.Background(), "peers:me") })

	_, err := repo.Get(ctx, "peers:me")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "peers:me", []byte(`[{"user_id":"a"}]`), time.Minute))

	got, err := repo.Get(ctx, "peers:me")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"user_id":"a"}]`), got)

	raw, err := client.Get(ctx, prefix+":peers:me").Bytes()
	require.NoError(t, err)
	assert.Equal(t, got, raw)

	ttl, err := client.TTL(ctx, prefix+":peers:me").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, repo.Delete(ctx, "peers:me"))
	_, err = repo.Get(ctx, "peers:me")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestTieredCache_WithRedis(t *testing.T) {
	client := liveRedis(t)
	ctx := context.Background()
	remote := NewRedisCacheRepository(client, "nutriswap-test-"+uuid.NewString(), zaptest.NewLogger(t))
	writer := NewTieredCache(memory.NewCacheRepository(0), remote, time.Minute, zaptest.NewLogger(t))
	reader := NewTieredCache(memory.NewCacheRepository(0), remote, time.Minute, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = writer.Delete(context.Background(), "explanation:k") })

	require.NoError(t, writer.Set(ctx, "explanation:k", []byte("shared"), time.Minute))

	got, err := reader.Get(ctx, "explanation:k")
	require.NoError(t, err)
	assert.Equal(t, []byte("shared"), got)
}

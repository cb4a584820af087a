package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// TieredCache reads through a local L1 cache into a shared L2 cache and writes to both
type TieredCache struct {
	local  outbound.CacheRepository
	remote outbound.CacheRepository
	l1TTL  time.Duration
	logger *zap.Logger
}

var _ outbound.CacheRepository = (*TieredCache)(nil)

// NewTieredCache creates a two level cache. Entries promoted from L2 live at most l1TTL in L1.
func NewTieredCache(local, remote outbound.CacheRepository, l1TTL time.Duration, logger *zap.Logger) *TieredCache {
	return &TieredCache{
		local:  local,
		remote: remote,
		l1TTL:  l1TTL,
		logger: logger.Named("tiered-cache"),
	}
}

// Get implements L1 (local) -> L2 (remote) lookup
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if data, err := c.local.Get(ctx, key); err == nil {
		c.logger.Debug("Cache L1 hit", zap.String("key", key))
		return data, nil
	}

	data, err := c.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			c.logger.Warn("Cache L2 error", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}

	c.logger.Debug("Cache L2 hit", zap.String("key", key))
	_ = c.local.Set(ctx, key, data, c.l1TTL)
	return data, nil
}

// Set writes through both layers. An L2 failure is returned after L1 is populated.
func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1 := ttl
	if c.l1TTL > 0 && (l1 <= 0 || c.l1TTL < l1) {
		l1 = c.l1TTL
	}
	if err := c.local.Set(ctx, key, value, l1); err != nil {
		return err
	}
	return c.remote.Set(ctx, key, value, ttl)
}

// Delete removes the key from both layers
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	_ = c.local.Delete(ctx, key)
	return c.remote.Delete(ctx, key)
}

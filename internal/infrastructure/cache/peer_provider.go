package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// CachedPeerProvider caches similar-user lists in front of a PeerSimilarityProvider.
// Purchase scores are not cached.
type CachedPeerProvider struct {
	next   outbound.PeerSimilarityProvider
	cache  outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

var _ outbound.PeerSimilarityProvider = (*CachedPeerProvider)(nil)

// NewCachedPeerProvider wraps next with a similar-user cache
func NewCachedPeerProvider(next outbound.PeerSimilarityProvider, cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedPeerProvider {
	return &CachedPeerProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("peer-cache"),
	}
}

// GetSimilarUsers returns the cached list for userID, loading it on a miss
func (p *CachedPeerProvider) GetSimilarUsers(ctx context.Context, userID string) ([]outbound.SimilarUser, error) {
	key := peerKey(userID)

	if data, err := p.cache.Get(ctx, key); err == nil {
		var users []outbound.SimilarUser
		if err := json.Unmarshal(data, &users); err == nil {
			return users, nil
		}
		p.logger.Warn("Discarding corrupt peer cache entry", zap.String("user_id", userID))
		_ = p.cache.Delete(ctx, key)
	}

	users, err := p.next.GetSimilarUsers(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(users); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			p.logger.Debug("Failed to cache similar users", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return users, nil
}

// GetPurchaseScore delegates to the wrapped provider
func (p *CachedPeerProvider) GetPurchaseScore(ctx context.Context, userID, barcode string) (float64, error) {
	return p.next.GetPurchaseScore(ctx, userID, barcode)
}

// Invalidate drops the cached list for userID, e.g. after new purchases are recorded
func (p *CachedPeerProvider) Invalidate(ctx context.Context, userID string) error {
	return p.cache.Delete(ctx, peerKey(userID))
}

func peerKey(userID string) string {
	return "peers:" + userID
}

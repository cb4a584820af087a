// Package memory provides an in-process cache repository
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

const defaultTTL = 24 * time.Hour

// CacheItem represents a cached item
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time
}

// CacheRepository is a bounded TTL cache safe for concurrent use
type CacheRepository struct {
	data    map[string]CacheItem
	maxSize int
	now     func() time.Time
	mutex   sync.RWMutex
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a cache holding at most maxSize entries (0 means unbounded)
func NewCacheRepository(maxSize int) *CacheRepository {
	return &CacheRepository{
		data:    make(map[string]CacheItem),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves a value, returning outbound.ErrCacheMiss for absent or expired keys
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mutex.RLock()
	item, exists := r.data[key]
	r.mutex.RUnlock()

	if !exists {
		return nil, outbound.ErrCacheMiss
	}
	if !r.now().Before(item.ExpiresAt) {
		r.mutex.Lock()
		if cur, ok := r.data[key]; ok && cur.ExpiresAt.Equal(item.ExpiresAt) {
			delete(r.data, key)
		}
		r.mutex.Unlock()
		return nil, outbound.ErrCacheMiss
	}

	out := make([]byte, len(item.Value))
	copy(out, item.Value)
	return out, nil
}

// Set stores a value with TTL. A non-positive TTL uses the 24h default.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	if _, exists := r.data[key]; !exists && r.maxSize > 0 && len(r.data) >= r.maxSize {
		r.evictLocked(now)
	}
	r.data[key] = CacheItem{Value: stored, ExpiresAt: now.Add(ttl)}
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.data, key)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (r *CacheRepository) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.data)
}

// evictLocked drops expired entries, or the entry closest to expiry when none have expired
func (r *CacheRepository) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	removed := false
	for k, item := range r.data {
		if !now.Before(item.ExpiresAt) {
			delete(r.data, k)
			removed = true
			continue
		}
		if oldestKey == "" || item.ExpiresAt.Before(oldest) {
			oldestKey, oldest = k, item.ExpiresAt
		}
	}
	if !removed && oldestKey != "" {
		delete(r.data, oldestKey)
	}
}

// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/user"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// ProductLookup is the result of a barcode lookup. Found is false for unknown barcodes.
type ProductLookup struct {
	Product product.Product
	Found   bool
}

// ProductRepository provides read access to the product catalogue
type ProductRepository interface {
	GetByBarcode(ctx context.Context, barcode string) (ProductLookup, error)
	GetByCategory(ctx context.Context, category product.Category, limit int) ([]product.Product, error)
}

// ProfileLookup is the result of a profile lookup. Found is false for unknown users.
type ProfileLookup struct {
	Profile user.Profile
	Found   bool
}

// UserRepository provides read access to user profiles and allergen declarations
type UserRepository interface {
	GetProfile(ctx context.Context, userID string) (ProfileLookup, error)
	GetAllergens(ctx context.Context, userID string) ([]user.AllergenDeclaration, error)
}

// SimilarUser is another shopper with overlapping purchase history
type SimilarUser struct {
	UserID             string `json:"user_id"`
	CommonProductCount int    `json:"common_product_count"`
}

// PeerSimilarityProvider supplies purchase-overlap data for the peer signal
type PeerSimilarityProvider interface {
	GetSimilarUsers(ctx context.Context, userID string) ([]SimilarUser, error)
	GetPurchaseScore(ctx context.Context, userID, barcode string) (float64, error)
}

// RecommendationLog is one persisted pipeline run
type RecommendationLog struct {
	RequestID       string
	UserID          string
	OriginalBarcode string
	Goal            user.Goal
	Status          string
	Barcodes        []string
	FallbackCount   int
	Duration        time.Duration
	CreatedAt       time.Time
}

// RecommendationLogRepository stores pipeline run records
type RecommendationLogRepository interface {
	Save(ctx context.Context, entry RecommendationLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]RecommendationLog, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

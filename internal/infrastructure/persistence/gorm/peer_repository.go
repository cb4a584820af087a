package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/ports/outbound"
)

const (
	minSharedProducts = 3
	maxSimilarUsers   = 10
)

const similarUsersQuery = `
SELECT other.user_id AS user_id, COUNT(DISTINCT other.barcode) AS common_product_count
FROM purchases AS mine
JOIN purchases AS other ON other.barcode = mine.barcode AND other.user_id <> mine.user_id
WHERE mine.user_id = ?
GROUP BY other.user_id
HAVING COUNT(DISTINCT other.barcode) >= ?
ORDER BY common_product_count DESC, other.user_id ASC
LIMIT ?`

// PeerRepository derives shopper similarity from purchase history
type PeerRepository struct {
	db *gorm.DB
}

var _ outbound.PeerSimilarityProvider = (*PeerRepository)(nil)

// NewPeerRepository creates a new peer repository
func NewPeerRepository(db *gorm.DB) *PeerRepository {
	return &PeerRepository{db: db}
}

// GetSimilarUsers returns the users sharing the most purchased barcodes with userID
func (r *PeerRepository) GetSimilarUsers(ctx context.Context, userID string) ([]outbound.SimilarUser, error) {
	var rows []outbound.SimilarUser

	err := r.db.WithContext(ctx).
		Raw(similarUsersQuery, userID, minSharedProducts, maxSimilarUsers).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PurchaseStats aggregates a user's purchases of one barcode
func (r *PeerRepository) PurchaseStats(ctx context.Context, userID, barcode string) (user.PurchaseStats, error) {
	var row struct {
		Count         int
		TotalQuantity float64
	}

	err := r.db.WithContext(ctx).
		Model(&PurchaseModel{}).
		Select("COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS total_quantity").
		Where("user_id = ? AND barcode = ?", userID, barcode).
		Scan(&row).Error
	if err != nil {
		return user.PurchaseStats{}, err
	}
	return user.PurchaseStats{Count: row.Count, TotalQuantity: row.TotalQuantity}, nil
}

// GetPurchaseScore maps a user's purchases of barcode onto [0,1]
func (r *PeerRepository) GetPurchaseScore(ctx context.Context, userID, barcode string) (float64, error) {
	stats, err := r.PurchaseStats(ctx, userID, barcode)
	if err != nil {
		return 0, err
	}
	return stats.Score(), nil
}

// RecordPurchases stores receipt line items for a user
func (r *PeerRepository) RecordPurchases(ctx context.Context, userID string, items []recommendation.PurchasedItem) error {
	if len(items) == 0 {
		return nil
	}
	models := make([]*PurchaseModel, len(items))
	for i, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		models[i] = &PurchaseModel{
			UserID:    userID,
			Barcode:   item.Barcode,
			Quantity:  quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

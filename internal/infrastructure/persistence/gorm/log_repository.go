package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// RecommendationLogRepository stores pipeline run records using GORM
type RecommendationLogRepository struct {
	db *gorm.DB
}

var _ outbound.RecommendationLogRepository = (*RecommendationLogRepository)(nil)

// NewRecommendationLogRepository creates a new log repository
func NewRecommendationLogRepository(db *gorm.DB) *RecommendationLogRepository {
	return &RecommendationLogRepository{db: db}
}

// Save inserts one log entry
func (r *RecommendationLogRepository) Save(ctx context.Context, entry outbound.RecommendationLog) error {
	return r.db.WithContext(ctx).Create(LogToModel(entry)).Error
}

// ListByUser returns a user's most recent log entries, newest first
func (r *RecommendationLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]outbound.RecommendationLog, error) {
	var models []RecommendationLogModel

	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]outbound.RecommendationLog, len(models))
	for i := range models {
		entries[i] = ModelToLog(&models[i])
	}
	return entries, nil
}

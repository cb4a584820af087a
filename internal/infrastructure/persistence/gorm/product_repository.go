package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// ProductRepository implements the product repository interface using GORM
type ProductRepository struct {
	db *gorm.DB
}

var _ outbound.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByBarcode finds a product by barcode. A missing product is not an error.
func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (outbound.ProductLookup, error) {
	var model ProductModel

	result := r.db.WithContext(ctx).First(&model, "barcode = ?", barcode)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return outbound.ProductLookup{}, nil
		}
		return outbound.ProductLookup{}, result.Error
	}

	return outbound.ProductLookup{Product: ModelToProduct(&model), Found: true}, nil
}

// GetByCategory lists up to limit products of a category ordered by barcode
func (r *ProductRepository) GetByCategory(ctx context.Context, category product.Category, limit int) ([]product.Product, error) {
	var models []ProductModel

	query := r.db.WithContext(ctx).
		Where("category = ?", string(category.Normalize())).
		Order("barcode")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	products := make([]product.Product, len(models))
	for i := range models {
		products[i] = ModelToProduct(&models[i])
	}
	return products, nil
}

// Upsert inserts products or replaces the stored rows with the same barcode
func (r *ProductRepository) Upsert(ctx context.Context, products ...product.Product) error {
	if len(products) == 0 {
		return nil
	}
	models := make([]*ProductModel, 0, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		models = append(models, ProductToModel(p))
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&models).Error
}

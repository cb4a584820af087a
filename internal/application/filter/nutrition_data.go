package filter

import (
	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/domain/product"
)

// NutritionDataFilter requires a set of nutrition fields to be present and non-negative
type NutritionDataFilter struct {
	required []product.Field
	logger   *zap.Logger
}

// NewNutritionDataFilter creates the stage. An empty field list uses the default macros.
func NewNutritionDataFilter(required []product.Field, logger *zap.Logger) *NutritionDataFilter {
	if len(required) == 0 {
		required = DefaultConfig().RequiredFields
	}
	return &NutritionDataFilter{
		required: append([]product.Field(nil), required...),
		logger:   logger.Named("nutrition-data-filter"),
	}
}

func (f *NutritionDataFilter) Name() string {
	return "nutrition_data"
}

func (f *NutritionDataFilter) Apply(products []product.Product, _ Context) []product.Product {
	return keep(products, func(p product.Product) bool {
		for _, field := range f.required {
			v, ok := p.Nutrition().Get(field).Value()
			if !ok || v < 0 {
				f.logger.Debug("Excluding product with incomplete nutrition data",
					zap.String("barcode", p.Barcode()),
					zap.String("field", string(field)),
				)
				return false
			}
		}
		return true
	})
}

package filter

import (
	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/domain/product"
)

// AvailabilityFilter drops products missing identity fields, carrying
// implausible nutrition values, or priced implausibly
type AvailabilityFilter struct {
	maxUnitPrice float64
	logger       *zap.Logger
}

// NewAvailabilityFilter creates the availability stage. A non-positive maxUnitPrice disables the upper bound.
func NewAvailabilityFilter(maxUnitPrice float64, logger *zap.Logger) *AvailabilityFilter {
	return &AvailabilityFilter{
		maxUnitPrice: maxUnitPrice,
		logger:       logger.Named("availability-filter"),
	}
}

func (f *AvailabilityFilter) Name() string {
	return "availability"
}

func (f *AvailabilityFilter) Apply(products []product.Product, _ Context) []product.Product {
	return keep(products, func(p product.Product) bool {
		if err := p.Validate(); err != nil {
			f.logger.Debug("Excluding unavailable product", zap.String("barcode", p.Barcode()), zap.Error(err))
			return false
		}
		if !p.Nutrition().InRange() {
			f.logger.Debug("Excluding product with implausible nutrition", zap.String("barcode", p.Barcode()))
			return false
		}
		if price, ok := p.UnitPrice().Value(); ok {
			if price <= 0 || (f.maxUnitPrice > 0 && price > f.maxUnitPrice) {
				f.logger.Debug("Excluding product with implausible price",
					zap.String("barcode", p.Barcode()),
					zap.Float64("unit_price", price),
				)
				return false
			}
		}
		return true
	})
}

package filter

import (
	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/domain/product"
)

// Compatibility scores between an original category and a candidate category
const (
	CompatExact        = 1.0
	CompatPreferred    = 0.9
	CompatAcceptable   = 0.6
	CompatUnclassified = 0.4
	CompatAvoided      = 0.1
)

type categoryRule struct {
	preferred  []product.Category
	acceptable []product.Category
	avoided    []product.Category
}

// compatibility lists the adjacent categories a shopper would accept as a swap
var compatibility = map[product.Category]categoryRule{
	"snacks": {
		preferred:  []product.Category{"health-supplements", "protein-bars"},
		acceptable: []product.Category{"nuts-and-seeds", "dried-fruit", "cereal-bars"},
		avoided:    []product.Category{"confectionery"},
	},
	"confectionery": {
		preferred:  []product.Category{"dark-chocolate", "dried-fruit"},
		acceptable: []product.Category{"snacks", "protein-bars"},
	},
	"beverages": {
		preferred:  []product.Category{"water", "tea", "coffee"},
		acceptable: []product.Category{"juices", "dairy-drinks"},
		avoided:    []product.Category{"alcoholic-beverages", "energy-drinks"},
	},
	"soft-drinks": {
		preferred:  []product.Category{"beverages", "water"},
		acceptable: []product.Category{"tea", "juices"},
		avoided:    []product.Category{"energy-drinks"},
	},
	"breakfast-cereals": {
		preferred:  []product.Category{"oats", "granola"},
		acceptable: []product.Category{"cereal-bars"},
		avoided:    []product.Category{"confectionery"},
	},
	"dairy": {
		preferred:  []product.Category{"yogurts", "plant-based-dairy"},
		acceptable: []product.Category{"cheese"},
		avoided:    []product.Category{"desserts"},
	},
	"ready-meals": {
		preferred:  []product.Category{"soups", "salads"},
		acceptable: []product.Category{"frozen-vegetables"},
		avoided:    []product.Category{"fast-food"},
	},
}

// Compatibility scores how well a candidate category substitutes for the target
func Compatibility(target, candidate product.Category) float64 {
	target, candidate = target.Normalize(), candidate.Normalize()
	if target != "" && target == candidate {
		return CompatExact
	}
	rule, ok := compatibility[target]
	if !ok {
		return CompatUnclassified
	}
	switch {
	case containsCategory(rule.preferred, candidate):
		return CompatPreferred
	case containsCategory(rule.acceptable, candidate):
		return CompatAcceptable
	case containsCategory(rule.avoided, candidate):
		return CompatAvoided
	}
	return CompatUnclassified
}

// AdjacentCategories lists the categories accepted in user-expectation mode besides the target itself
func AdjacentCategories(target product.Category) []product.Category {
	rule, ok := compatibility[target.Normalize()]
	if !ok {
		return nil
	}
	out := make([]product.Category, 0, len(rule.preferred)+len(rule.acceptable))
	out = append(out, rule.preferred...)
	return append(out, rule.acceptable...)
}

func containsCategory(list []product.Category, c product.Category) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// CategoryFilter keeps candidates in the original product's category, or in an
// adjacent category when running in user-expectation mode
type CategoryFilter struct {
	logger *zap.Logger
}

// NewCategoryFilter creates the category stage
func NewCategoryFilter(logger *zap.Logger) *CategoryFilter {
	return &CategoryFilter{logger: logger.Named("category-filter")}
}

func (f *CategoryFilter) Name() string {
	return "category"
}

func (f *CategoryFilter) Apply(products []product.Product, fctx Context) []product.Product {
	target := fctx.TargetCategory.Normalize()
	if target == "" {
		return keep(products, func(product.Product) bool { return true })
	}
	return keep(products, func(p product.Product) bool {
		score := Compatibility(target, p.Category())
		ok := score == CompatExact
		if fctx.Mode == ModeUserExpectation {
			ok = score >= CompatAcceptable
		}
		if !ok {
			f.logger.Debug("Excluding product outside target category",
				zap.String("barcode", p.Barcode()),
				zap.String("category", string(p.Category())),
				zap.String("target", string(target)),
			)
		}
		return ok
	})
}

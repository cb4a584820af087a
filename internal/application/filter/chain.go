// Package filter implements the hard filter chain that removes unsafe, incomplete
// or out-of-scope candidates before scoring.
package filter

import (
	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// Mode selects how strictly candidate categories must match the original
type Mode string

const (
	ModeStrict          Mode = "strict"
	ModeUserExpectation Mode = "user_expectation"
)

// Context is the per-request input shared by all stages
type Context struct {
	UserAllergens  []user.AllergenDeclaration
	TargetCategory product.Category
	Mode           Mode
}

// Stage is one hard filter. Apply must only remove products, never add or reorder them.
type Stage interface {
	Name() string
	Apply(products []product.Product, fctx Context) []product.Product
}

// Config tunes the default chain
type Config struct {
	RequiredFields []product.Field
	MaxUnitPrice   float64
}

// DefaultConfig returns the standard chain settings
func DefaultConfig() Config {
	return Config{
		RequiredFields: []product.Field{
			product.FieldEnergyKcal,
			product.FieldProtein,
			product.FieldFat,
			product.FieldCarbohydrates,
		},
		MaxUnitPrice: 1000,
	}
}

// Chain runs stages in order and reports per-stage counts
type Chain struct {
	stages  []Stage
	metrics outbound.MetricsRecorder
	logger  *zap.Logger
}

// NewChain builds a chain over the given stages
func NewChain(logger *zap.Logger, metrics outbound.MetricsRecorder, stages ...Stage) *Chain {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Chain{
		stages:  stages,
		metrics: metrics,
		logger:  logger.Named("hard-filter-chain"),
	}
}

// NewDefaultChain builds availability, nutrition data, allergen and category stages in that order
func NewDefaultChain(cfg Config, logger *zap.Logger, metrics outbound.MetricsRecorder) *Chain {
	return NewChain(logger, metrics,
		NewAvailabilityFilter(cfg.MaxUnitPrice, logger),
		NewNutritionDataFilter(cfg.RequiredFields, logger),
		NewAllergenFilter(logger),
		NewCategoryFilter(logger),
	)
}

// Stages returns the configured stage names in run order
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Run filters products through every stage. It stops as soon as a stage leaves
// nothing, which callers treat as "no recommendations" rather than an error.
func (c *Chain) Run(products []product.Product, fctx Context) ([]product.Product, recommendation.ChainSummary) {
	summary := recommendation.ChainSummary{
		InitialCount: len(products),
		Stages:       make([]recommendation.FilterStats, 0, len(c.stages)),
	}

	current := products
	for _, stage := range c.stages {
		in := len(current)
		current = stage.Apply(current, fctx)
		removed := in - len(current)

		summary.Stages = append(summary.Stages, recommendation.FilterStats{
			Stage:          stage.Name(),
			TotalProcessed: in,
			FilteredCount:  removed,
			Passed:         len(current),
		})
		c.metrics.RecordStageRemoved(stage.Name(), removed)

		if len(current) == 0 {
			summary.StoppedEarly = true
			summary.StoppedAt = stage.Name()
			c.logger.Warn("Filter stage eliminated all candidates",
				zap.String("stage", stage.Name()),
				zap.Int("processed", in),
				zap.Int("initial_count", summary.InitialCount),
			)
			break
		}
	}

	summary.FinalCount = len(current)
	if summary.InitialCount > 0 {
		summary.FilterRate = float64(summary.InitialCount-summary.FinalCount) / float64(summary.InitialCount)
	}
	if current == nil {
		current = []product.Product{}
	}
	return current, summary
}

// keep returns the products for which pred holds, preserving order
func keep(products []product.Product, pred func(product.Product) bool) []product.Product {
	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

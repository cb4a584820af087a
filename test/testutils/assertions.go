package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nutriswap/recommender/internal/domain/recommendation"
)

// RecommendationAssertions provides domain-specific assertions for pipeline output
type RecommendationAssertions struct {
	t *testing.T
}

// NewRecommendationAssertions creates new recommendation assertions
func NewRecommendationAssertions(t *testing.T) *RecommendationAssertions {
	return &RecommendationAssertions{t: t}
}

// DenseRanks asserts ranks run 1..n without gaps
func (ra *RecommendationAssertions) DenseRanks(recs []recommendation.Recommendation, msgAndArgs ...interface{}) {
	for i, r := range recs {
		assert.Equal(ra.t, i+1, r.Rank(), msgAndArgs...)
	}
}

// Explained asserts every recommendation carries non-empty reasoning
func (ra *RecommendationAssertions) Explained(recs []recommendation.Recommendation, msgAndArgs ...interface{}) {
	for _, r := range recs {
		assert.NotEmpty(ra.t, r.Reasoning(), msgAndArgs...)
		assert.NotEmpty(ra.t, r.DetailedReasoning(), msgAndArgs...)
		assert.Equal(ra.t, recommendation.SafetySafe, r.SafetyCheck(), msgAndArgs...)
	}
}

// Diverse asserts no brand appears more than maxBrand times and no category more than maxCategory times
func (ra *RecommendationAssertions) Diverse(recs []recommendation.Recommendation, maxBrand, maxCategory int, msgAndArgs ...interface{}) {
	brands := map[string]int{}
	categories := map[string]int{}
	for _, r := range recs {
		brands[r.Product().Brand()]++
		categories[string(r.Product().Category())]++
	}
	for brand, n := range brands {
		assert.LessOrEqual(ra.t, n, maxBrand, append([]interface{}{"brand " + brand}, msgAndArgs...)...)
	}
	for category, n := range categories {
		assert.LessOrEqual(ra.t, n, maxCategory, append([]interface{}{"category " + category}, msgAndArgs...)...)
	}
}

// Barcodes returns the barcodes in rank order
func Barcodes(recs []recommendation.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Product().Barcode()
	}
	return out
}

// Package recommendation holds the result types produced by the recommendation pipeline
package recommendation

import (
	"encoding/json"

	"github.com/nutriswap/recommender/internal/domain/product"
)

// SafetySafe is the only safety verdict a returned recommendation can carry
const SafetySafe = "safe"

// ExplanationSource records where a recommendation's text came from
type ExplanationSource string

const (
	SourceCompletion ExplanationSource = "completion"
	SourceCache      ExplanationSource = "cache"
	SourceFallback   ExplanationSource = "fallback"
)

// Explanation is the short and detailed justification for one recommendation
type Explanation struct {
	Reasoning         string
	DetailedReasoning string
	Source            ExplanationSource
}

// Recommendation is a ranked, explained alternative. It is built once and never mutated.
type Recommendation struct {
	rank              int
	product           product.Product
	score             float64
	nutritionScore    float64
	nameSimilarity    float64
	peerScore         float64
	improvement       NutritionImprovement
	reasoning         string
	detailedReasoning string
	source            ExplanationSource
}

// New builds a Recommendation from a ranked candidate and its explanation
func New(rank int, c ScoredCandidate, e Explanation) Recommendation {
	return Recommendation{
		rank:              rank,
		product:           c.Product,
		score:             c.CombinedScore,
		nutritionScore:    c.NutritionScore,
		nameSimilarity:    c.NameSimilarity,
		peerScore:         c.PeerScore,
		improvement:       c.Improvement.Clone(),
		reasoning:         e.Reasoning,
		detailedReasoning: e.DetailedReasoning,
		source:            e.Source,
	}
}

func (r Recommendation) Rank() int                         { return r.rank }
func (r Recommendation) Product() product.Product          { return r.product }
func (r Recommendation) Score() float64                    { return r.score }
func (r Recommendation) PeerScore() float64                { return r.peerScore }
func (r Recommendation) Improvement() NutritionImprovement { return r.improvement.Clone() }
func (r Recommendation) SafetyCheck() string               { return SafetySafe }
func (r Recommendation) Reasoning() string                 { return r.reasoning }
func (r Recommendation) DetailedReasoning() string         { return r.detailedReasoning }
func (r Recommendation) ExplanationSource() ExplanationSource {
	return r.source
}

type recommendationJSON struct {
	Rank              int                  `json:"rank"`
	Product           product.Product      `json:"product"`
	Score             float64              `json:"score"`
	NutritionScore    float64              `json:"nutrition_score"`
	NameSimilarity    float64              `json:"name_similarity"`
	PeerScore         float64              `json:"peer_score"`
	Improvement       NutritionImprovement `json:"nutrition_improvement"`
	SafetyCheck       string               `json:"safety_check"`
	Reasoning         string               `json:"reasoning"`
	DetailedReasoning string               `json:"detailed_reasoning"`
	Source            ExplanationSource    `json:"explanation_source"`
}

// MarshalJSON renders the recommendation for the calling layer
func (r Recommendation) MarshalJSON() ([]byte, error) {
	return json.Marshal(recommendationJSON{
		Rank:              r.rank,
		Product:           r.product,
		Score:             r.score,
		NutritionScore:    r.nutritionScore,
		NameSimilarity:    r.nameSimilarity,
		PeerScore:         r.peerScore,
		Improvement:       r.improvement,
		SafetyCheck:       SafetySafe,
		Reasoning:         r.reasoning,
		DetailedReasoning: r.detailedReasoning,
		Source:            r.source,
	})
}

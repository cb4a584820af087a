package recommendation

import "github.com/nutriswap/recommender/internal/domain/product"

// ScoredCandidate is a product that survived hard filtering, with its signals.
// Index is the candidate's position in the filtered pool and breaks score ties.
type ScoredCandidate struct {
	Product               product.Product
	Index                 int
	NutritionScore        float64
	NameSimilarity        float64
	PeerScore             float64
	CategoryCompatibility float64
	CombinedScore         float64
	Improvement           NutritionImprovement
}

package recommendation

import "github.com/nutriswap/recommender/internal/domain/product"

// Direction is whether a nutrient change helps the user's goal
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// FieldChange is the delta of one nutrition field between the original and an alternative
type FieldChange struct {
	Original       float64   `json:"original"`
	Alternative    float64   `json:"alternative"`
	AbsoluteChange float64   `json:"absolute_change"`
	PercentChange  float64   `json:"percent_change"`
	Direction      Direction `json:"improvement_direction"`
	Score          float64   `json:"score"`
}

// NutritionImprovement is the per-field comparison of an alternative against the original.
// Fields absent on either product are omitted.
type NutritionImprovement struct {
	Fields                  map[product.Field]FieldChange `json:"fields"`
	OverallImprovementScore float64                       `json:"overall_improvement_score"`
}

// Clone returns a copy that shares no map with the receiver
func (n NutritionImprovement) Clone() NutritionImprovement {
	out := NutritionImprovement{OverallImprovementScore: n.OverallImprovementScore}
	if n.Fields != nil {
		out.Fields = make(map[product.Field]FieldChange, len(n.Fields))
		for f, c := range n.Fields {
			out.Fields[f] = c
		}
	}
	return out
}

// Get returns the change for a field
func (n NutritionImprovement) Get(f product.Field) (FieldChange, bool) {
	c, ok := n.Fields[f]
	return c, ok
}

// Best returns the positive change with the largest score, used for short explanations
func (n NutritionImprovement) Best() (product.Field, FieldChange, bool) {
	var (
		bestField product.Field
		best      FieldChange
		found     bool
	)
	for _, f := range product.AllFields {
		c, ok := n.Fields[f]
		if !ok || c.Direction != DirectionPositive {
			continue
		}
		if !found || c.Score > best.Score {
			bestField, best, found = f, c, true
		}
	}
	return bestField, best, found
}

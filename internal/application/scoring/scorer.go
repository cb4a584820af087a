// Package scoring maps a candidate product and a nutrition goal onto a [0,1] score
package scoring

import (
	"math"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/user"
)

const baseScore = 0.5

// term is one weighted contribution. A term is skipped when its nutrient is absent.
type term struct {
	field     product.Field
	weight    float64
	normalize func(v float64) float64
}

// Lose weight: the negative weights mark "less is better" fields; their magnitude
// is applied to the reverse-normalized value.
var loseWeightTerms = []term{
	{product.FieldEnergyKcal, -0.4, func(v float64) float64 { return NormalizeReverse(v, 0, 600) }},
	{product.FieldFat, -0.3, func(v float64) float64 { return NormalizeReverse(v, 0, 50) }},
	{product.FieldSugar, -0.3, func(v float64) float64 { return NormalizeReverse(v, 0, 50) }},
	{product.FieldProtein, 0.2, func(v float64) float64 { return NormalizeForward(v, 0, 30) }},
	{product.FieldFiber, 0.3, func(v float64) float64 { return NormalizeForward(v, 0, 20) }},
}

var gainMuscleTerms = []term{
	{product.FieldCarbohydrates, 0.2, func(v float64) float64 { return NormalizeOptimal(v, 15, 45) }},
	{product.FieldEnergyKcal, 0.3, func(v float64) float64 { return NormalizeOptimal(v, 200, 500) }},
	{product.FieldFat, 0.1, func(v float64) float64 { return NormalizeOptimal(v, 5, 20) }},
}

const (
	muscleProteinWeight  = 0.5
	completeProteinBonus = 0.2
	densityBonusMax      = 0.1
	densityForFullBonus  = 10.0
	balanceWeight        = 0.4
	varietyWeight        = 0.3
	naturalWeight        = 0.3
	naturalKeywordStep   = 0.1
	idealProteinRatio    = 0.30
	idealCarbRatio       = 0.50
	idealFatRatio        = 0.20
	seniorAge            = 60
	seniorSodiumLimit    = 0.6
	seniorSodiumPenalty  = 0.1
	youngAge             = 25
	youngEnergyTolerance = 250
	youngEnergyBonus     = 0.05
	activeCarbTolerance  = 30
	activeCarbBonus      = 0.05
)

// varietyFields are the six fields counted by the variety score
var varietyFields = []product.Field{
	product.FieldEnergyKcal,
	product.FieldProtein,
	product.FieldFat,
	product.FieldCarbohydrates,
	product.FieldSugar,
	product.FieldFiber,
}

// Scorer computes goal-specific nutrition scores. It holds no mutable state and
// is safe for concurrent use.
type Scorer struct{}

// NewScorer creates a Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the personalized nutrition score of p for goal, in [0,1]
func (s *Scorer) Score(p product.Product, profile user.Profile, goal user.Goal) float64 {
	var score float64
	switch goal {
	case user.GoalLoseWeight:
		score = s.loseWeight(p)
	case user.GoalGainMuscle:
		score = s.gainMuscle(p)
	default:
		score = s.balanced(p)
	}
	return Clamp01(score + Personalization(p, profile))
}

func applyTerms(score float64, n product.NutritionFacts, terms []term) float64 {
	for _, t := range terms {
		v, ok := n.Get(t.field).Value()
		if !ok {
			continue
		}
		score += math.Abs(t.weight) * (t.normalize(v) - 0.5)
	}
	return score
}

func (s *Scorer) loseWeight(p product.Product) float64 {
	n := p.Nutrition()
	return applyTerms(baseScore, n, loseWeightTerms) + DensityBonus(n)
}

func (s *Scorer) gainMuscle(p product.Product) float64 {
	n := p.Nutrition()
	score := baseScore
	if protein, ok := n.Protein.Value(); ok {
		score += muscleProteinWeight * NormalizeForward(protein, 0, 50)
	}
	score = applyTerms(score, n, gainMuscleTerms)
	if IsCompleteProtein(p) {
		score += completeProteinBonus
	}
	return score
}

func (s *Scorer) balanced(p product.Product) float64 {
	n := p.Nutrition()
	return balanceWeight*BalanceScore(n) + varietyWeight*VarietyScore(n) + naturalWeight*NaturalScore(p)
}

// DensityBonus rewards protein and fiber per calorie, up to 0.1
func DensityBonus(n product.NutritionFacts) float64 {
	energy, ok := n.EnergyKcal.Value()
	if !ok {
		return 0
	}
	nutrients := n.Protein.Or(0) + n.Fiber.Or(0)
	if nutrients <= 0 {
		return 0
	}
	if energy <= 0 {
		return densityBonusMax
	}
	density := nutrients / energy * 100
	return densityBonusMax * math.Min(1, density/densityForFullBonus)
}

// BalanceScore is 1 for a 30:50:20 protein:carb:fat split and falls toward 0 as the split deviates
func BalanceScore(n product.NutritionFacts) float64 {
	protein, carbs, fat := n.Protein.Or(0), n.Carbohydrates.Or(0), n.Fat.Or(0)
	total := protein + carbs + fat
	if total <= 0 {
		return 0
	}
	deviation := math.Abs(protein/total-idealProteinRatio) +
		math.Abs(carbs/total-idealCarbRatio) +
		math.Abs(fat/total-idealFatRatio)
	return Clamp01(1 - deviation)
}

// VarietyScore is the fraction of tracked fields that are present and nonzero
func VarietyScore(n product.NutritionFacts) float64 {
	count := 0
	for _, f := range varietyFields {
		if v, ok := n.Get(f).Value(); ok && v != 0 {
			count++
		}
	}
	return float64(count) / float64(len(varietyFields))
}

// NaturalScore starts at 0.5 and moves 0.1 per natural or additive keyword in the name and ingredients
func NaturalScore(p product.Product) float64 {
	text := p.SearchText()
	natural := distinctMatches(naturalRe, text)
	additives := distinctMatches(additiveRe, text) + distinctMatches(eNumberRe, text)
	return Clamp01(baseScore + naturalKeywordStep*float64(natural-additives))
}

// IsCompleteProtein reports whether the name or ingredients mention a complete protein source
func IsCompleteProtein(p product.Product) bool {
	return completeProteinRe.MatchString(p.SearchText())
}

// Personalization returns the adjustment for age and activity level
func Personalization(p product.Product, profile user.Profile) float64 {
	n := p.Nutrition()
	adj := 0.0
	if profile.Age > seniorAge {
		if sodium, ok := n.Sodium.Value(); ok && sodium > seniorSodiumLimit {
			adj -= seniorSodiumPenalty
		}
	}
	if profile.Age > 0 && profile.Age < youngAge {
		if energy, ok := n.EnergyKcal.Value(); ok && energy > youngEnergyTolerance {
			adj += youngEnergyBonus
		}
	}
	if profile.ActivityLevel.IsActive() {
		if carbs, ok := n.Carbohydrates.Value(); ok && carbs > activeCarbTolerance {
			adj += activeCarbBonus
		}
	}
	return adj
}

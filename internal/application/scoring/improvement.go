package scoring

import (
	"math"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
)

// fullCreditPercent is the percent change that earns a field its full directional score
const fullCreditPercent = 20.0

type preference struct {
	lowerIsBetter bool
	weight        float64
}

var improvementPreferences = map[user.Goal]map[product.Field]preference{
	user.GoalLoseWeight: {
		product.FieldEnergyKcal:   {true, 0.30},
		product.FieldSugar:        {true, 0.25},
		product.FieldFat:          {true, 0.15},
		product.FieldSaturatedFat: {true, 0.10},
		product.FieldProtein:      {false, 0.10},
		product.FieldFiber:        {false, 0.10},
	},
	user.GoalGainMuscle: {
		product.FieldProtein:       {false, 0.45},
		product.FieldEnergyKcal:    {false, 0.15},
		product.FieldCarbohydrates: {false, 0.15},
		product.FieldFiber:         {false, 0.10},
		product.FieldSugar:         {true, 0.10},
		product.FieldSaturatedFat:  {true, 0.05},
	},
	user.GoalMaintain:      balancedPreferences,
	user.GoalGeneralHealth: balancedPreferences,
}

var balancedPreferences = map[product.Field]preference{
	product.FieldSugar:        {true, 0.20},
	product.FieldFiber:        {false, 0.20},
	product.FieldSaturatedFat: {true, 0.15},
	product.FieldSodium:       {true, 0.15},
	product.FieldProtein:      {false, 0.15},
	product.FieldEnergyKcal:   {true, 0.10},
	product.FieldFat:          {true, 0.05},
}

// CompareNutritionImprovement reports how alternative differs from original for goal.
// Fields missing on either side are left out.
func CompareNutritionImprovement(original, alternative product.Product, goal user.Goal) recommendation.NutritionImprovement {
	prefs, ok := improvementPreferences[goal]
	if !ok {
		prefs = balancedPreferences
	}

	out := recommendation.NutritionImprovement{Fields: make(map[product.Field]recommendation.FieldChange)}
	var weighted, totalWeight float64

	for _, f := range product.AllFields {
		o, okO := original.Nutrition().Get(f).Value()
		a, okA := alternative.Nutrition().Get(f).Value()
		if !okO || !okA {
			continue
		}

		change := recommendation.FieldChange{
			Original:       o,
			Alternative:    a,
			AbsoluteChange: round2(a - o),
			PercentChange:  round2(percentChange(o, a)),
			Direction:      recommendation.DirectionNeutral,
		}

		pref, tracked := prefs[f]
		if tracked && a != o {
			improved := (a < o) == pref.lowerIsBetter
			magnitude := math.Min(1, math.Abs(percentChange(o, a))/fullCreditPercent)
			if improved {
				change.Direction = recommendation.DirectionPositive
				change.Score = magnitude
			} else {
				change.Direction = recommendation.DirectionNegative
				change.Score = -magnitude
			}
		}
		if tracked {
			weighted += pref.weight * change.Score
			totalWeight += pref.weight
		}
		out.Fields[f] = change
	}

	if totalWeight > 0 {
		out.OverallImprovementScore = round2(weighted / totalWeight)
	}
	return out
}

// percentChange treats any change from zero as a full 100% move
func percentChange(original, alternative float64) float64 {
	if original == 0 {
		switch {
		case alternative > 0:
			return 100
		case alternative < 0:
			return -100
		}
		return 0
	}
	return (alternative - original) / original * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package scoring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
)

func withNutrition(name, ingredients string, n product.NutritionFacts) product.Product {
	return product.New(product.Params{Barcode: "1", Name: name, Ingredients: ingredients, Nutrition: n})
}

func adult() user.Profile {
	return user.Profile{ID: "u1", Age: 30, ActivityLevel: user.ActivityModerate}
}

func TestNormalizeForward(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeForward(-1, 0, 30))
	assert.Equal(t, 0.5, NormalizeForward(15, 0, 30))
	assert.Equal(t, 1.0, NormalizeForward(45, 0, 30))
	assert.Equal(t, 1.0, NormalizeForward(5, 5, 5))
}

func TestNormalizeReverse(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeReverse(0, 0, 600))
	assert.Equal(t, 0.5, NormalizeReverse(300, 0, 600))
	assert.Equal(t, 0.0, NormalizeReverse(900, 0, 600))
}

func TestNormalizeOptimal(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeOptimal(300, 200, 500))
	assert.InDelta(t, 0.5, NormalizeOptimal(100, 200, 500), 1e-9)
	assert.InDelta(t, 0.8, NormalizeOptimal(600, 200, 500), 1e-9)
	assert.Equal(t, 0.0, NormalizeOptimal(1200, 200, 500))
	assert.Equal(t, 0.0, NormalizeOptimal(0, 200, 500))
}

func TestScore_LoseWeight(t *testing.T) {
	p := withNutrition("Chicken Wrap", "", product.NutritionFacts{
		EnergyKcal: product.Some(300),
		Fat:        product.Some(10),
		Sugar:      product.Some(5),
		Protein:    product.Some(15),
	})

	got := NewScorer().Score(p, adult(), user.GoalLoseWeight)

	assert.InDelta(t, 0.76, got, 1e-9)
}

func TestScore_LoseWeightPrefersLighterProduct(t *testing.T) {
	s := NewScorer()
	soda := withNutrition("Cola", "", product.NutritionFacts{
		EnergyKcal: product.Some(180), Sugar: product.Some(39), Protein: product.Some(0), Fat: product.Some(0),
	})
	zero := withNutrition("Cola Zero", "", product.NutritionFacts{
		EnergyKcal: product.Some(70), Sugar: product.Some(0), Protein: product.Some(0), Fat: product.Some(0),
	})

	assert.Greater(t, s.Score(zero, adult(), user.GoalLoseWeight), s.Score(soda, adult(), user.GoalLoseWeight))
}

func TestScore_GainMuscle(t *testing.T) {
	s := NewScorer()
	rice := withNutrition("Rice Cakes", "rice, salt", product.NutritionFacts{
		Protein:       product.Some(8),
		Carbohydrates: product.Some(80),
		EnergyKcal:    product.Some(390),
		Fat:           product.Some(3),
	})
	yogurt := withNutrition("Greek Yogurt", "milk, cultures", product.NutritionFacts{
		Protein:       product.Some(25),
		Carbohydrates: product.Some(30),
		EnergyKcal:    product.Some(300),
		Fat:           product.Some(10),
	})

	assert.InDelta(t, 0.58+0.2*((1-35.0/45.0)-0.5)+0.15+0.01, s.Score(rice, adult(), user.GoalGainMuscle), 1e-6)
	assert.Equal(t, 1.0, s.Score(yogurt, adult(), user.GoalGainMuscle))
	assert.True(t, IsCompleteProtein(yogurt))
	assert.False(t, IsCompleteProtein(rice))
}

func TestScore_Balanced(t *testing.T) {
	p := withNutrition("Organic Oats Porridge", "whole oats, water", product.NutritionFacts{
		EnergyKcal:    product.Some(100),
		Protein:       product.Some(6),
		Fat:           product.Some(4),
		Carbohydrates: product.Some(10),
		Sugar:         product.Some(0),
	})

	for _, goal := range []user.Goal{user.GoalMaintain, user.GoalGeneralHealth} {
		assert.InDelta(t, 0.84, NewScorer().Score(p, adult(), goal), 1e-9, goal)
	}
}

func TestNaturalScore(t *testing.T) {
	processed := withNutrition("Fruit Drink", "water, sugar, artificial flavouring, E211, sucralose", product.NutritionFacts{})
	assert.InDelta(t, 0.5+0.1*(1-4), NaturalScore(processed), 1e-9)

	plain := withNutrition("Water", "water", product.NutritionFacts{})
	assert.Equal(t, 0.5, NaturalScore(plain))
}

func TestBalanceScore(t *testing.T) {
	assert.Equal(t, 0.0, BalanceScore(product.NutritionFacts{}))
	allFat := product.NutritionFacts{Fat: product.Some(50), Protein: product.Some(0), Carbohydrates: product.Some(0)}
	assert.Equal(t, 0.0, BalanceScore(allFat))
}

func TestDensityBonus(t *testing.T) {
	assert.InDelta(t, 0.1, DensityBonus(product.NutritionFacts{
		EnergyKcal: product.Some(100), Protein: product.Some(8), Fiber: product.Some(4),
	}), 1e-9)
	assert.InDelta(t, 0.05, DensityBonus(product.NutritionFacts{
		EnergyKcal: product.Some(200), Protein: product.Some(10),
	}), 1e-9)
	assert.Equal(t, 0.0, DensityBonus(product.NutritionFacts{Protein: product.Some(10)}))
}

func TestPersonalization(t *testing.T) {
	salty := withNutrition("Crisps", "", product.NutritionFacts{Sodium: product.Some(1.0)})
	assert.InDelta(t, -0.1, Personalization(salty, user.Profile{Age: 70}), 1e-9)
	assert.Equal(t, 0.0, Personalization(salty, user.Profile{Age: 40}))

	dense := withNutrition("Granola", "", product.NutritionFacts{
		EnergyKcal: product.Some(450), Carbohydrates: product.Some(60),
	})
	assert.InDelta(t, 0.1, Personalization(dense, user.Profile{Age: 20, ActivityLevel: user.ActivityVeryActive}), 1e-9)
	assert.Equal(t, 0.0, Personalization(dense, user.Profile{}))
}

func TestScore_AlwaysInUnitRange(t *testing.T) {
	s := NewScorer()
	extreme := withNutrition("Lard", "hydrogenated fat, E450, E451, artificial colour", product.NutritionFacts{
		EnergyKcal: product.Some(900), Fat: product.Some(100), Sugar: product.Some(100), Sodium: product.Some(5),
	})
	old := user.Profile{Age: 80}
	for _, goal := range user.Goals {
		got := s.Score(extreme, old, goal)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestScore_ConcurrentUse(t *testing.T) {
	s := NewScorer()
	p := withNutrition("Chicken Wrap", "", product.NutritionFacts{
		EnergyKcal: product.Some(300), Fat: product.Some(10), Sugar: product.Some(5), Protein: product.Some(15),
	})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.InDelta(t, 0.76, s.Score(p, adult(), user.GoalLoseWeight), 1e-9)
		}()
	}
	wg.Wait()
}

func TestCompareNutritionImprovement_SugarFreeSwap(t *testing.T) {
	original := withNutrition("Cola", "", product.NutritionFacts{
		EnergyKcal: product.Some(180), Sugar: product.Some(39), Protein: product.Some(0),
	})
	alternative := withNutrition("Cola Zero", "", product.NutritionFacts{
		EnergyKcal: product.Some(70), Sugar: product.Some(0), Protein: product.Some(0),
	})

	got := CompareNutritionImprovement(original, alternative, user.GoalLoseWeight)

	sugar, ok := got.Get(product.FieldSugar)
	require.True(t, ok)
	assert.InDelta(t, -100, sugar.PercentChange, 1e-9)
	assert.Equal(t, -39.0, sugar.AbsoluteChange)
	assert.Equal(t, recommendation.DirectionPositive, sugar.Direction)
	assert.Equal(t, 1.0, sugar.Score)

	protein, ok := got.Get(product.FieldProtein)
	require.True(t, ok)
	assert.Equal(t, recommendation.DirectionNeutral, protein.Direction)

	_, ok = got.Get(product.FieldFat)
	assert.False(t, ok)
	assert.InDelta(t, 0.85, got.OverallImprovementScore, 1e-9)
}

func TestCompareNutritionImprovement_GoalSemantics(t *testing.T) {
	original := withNutrition("Bar", "", product.NutritionFacts{EnergyKcal: product.Some(200), Protein: product.Some(10)})
	richer := withNutrition("Bar+", "", product.NutritionFacts{EnergyKcal: product.Some(220), Protein: product.Some(11)})

	lose := CompareNutritionImprovement(original, richer, user.GoalLoseWeight)
	gain := CompareNutritionImprovement(original, richer, user.GoalGainMuscle)

	assert.Equal(t, recommendation.DirectionNegative, lose.Fields[product.FieldEnergyKcal].Direction)
	assert.InDelta(t, -0.5, lose.Fields[product.FieldEnergyKcal].Score, 1e-9)
	assert.Equal(t, recommendation.DirectionPositive, gain.Fields[product.FieldEnergyKcal].Direction)
	assert.Equal(t, recommendation.DirectionPositive, gain.Fields[product.FieldProtein].Direction)
	assert.Greater(t, gain.OverallImprovementScore, 0.0)
	assert.Less(t, lose.OverallImprovementScore, gain.OverallImprovementScore)
}

func TestCompareNutritionImprovement_FromZero(t *testing.T) {
	original := withNutrition("Water", "", product.NutritionFacts{Sugar: product.Some(0)})
	sweet := withNutrition("Flavoured Water", "", product.NutritionFacts{Sugar: product.Some(4)})

	got := CompareNutritionImprovement(original, sweet, user.GoalMaintain)

	assert.Equal(t, 100.0, got.Fields[product.FieldSugar].PercentChange)
	assert.Equal(t, recommendation.DirectionNegative, got.Fields[product.FieldSugar].Direction)
	assert.Equal(t, -1.0, got.OverallImprovementScore)
}

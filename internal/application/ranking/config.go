package ranking

import "github.com/nutriswap/recommender/internal/domain/user"

// Weights blends the per-candidate signals for one goal
type Weights struct {
	Nutrition  float64 `mapstructure:"nutrition"`
	Similarity float64 `mapstructure:"similarity"`
	Peer       float64 `mapstructure:"peer"`
}

// Penalties are the goal-specific overrides applied after blending
type Penalties struct {
	ExcludedScore      float64 `mapstructure:"excluded_score"`
	Multiplier         float64 `mapstructure:"multiplier"`
	SugarExclude       float64 `mapstructure:"sugar_exclude"`
	SugarPenalty       float64 `mapstructure:"sugar_penalty"`
	MinNutritionScore  float64 `mapstructure:"min_nutrition_score"`
	ProteinExclude     float64 `mapstructure:"protein_exclude"`
	ProteinBonusAt     float64 `mapstructure:"protein_bonus_at"`
	ProteinBonusFactor float64 `mapstructure:"protein_bonus_factor"`
}

// Config tunes the ranker
type Config struct {
	Weights          map[user.Goal]Weights
	Penalties        Penalties
	PeerEnabled      bool
	MaxResults       int
	BrandCap         int
	CategoryCap      int
	DiversityMinPool int
}

// DefaultWeights returns the standard per-goal blend
func DefaultWeights() map[user.Goal]Weights {
	return map[user.Goal]Weights{
		user.GoalLoseWeight:    {Nutrition: 0.98, Similarity: 0.02, Peer: 0},
		user.GoalGainMuscle:    {Nutrition: 0.85, Similarity: 0.10, Peer: 0.05},
		user.GoalMaintain:      {Nutrition: 0.60, Similarity: 0.25, Peer: 0.15},
		user.GoalGeneralHealth: {Nutrition: 0.60, Similarity: 0.25, Peer: 0.15},
	}
}

// DefaultPenalties returns the standard penalty thresholds
func DefaultPenalties() Penalties {
	return Penalties{
		ExcludedScore:      0.01,
		Multiplier:         0.1,
		SugarExclude:       50,
		SugarPenalty:       20,
		MinNutritionScore:  0.3,
		ProteinExclude:     5,
		ProteinBonusAt:     15,
		ProteinBonusFactor: 1.2,
	}
}

// DefaultConfig returns the standard ranker settings
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		Penalties:        DefaultPenalties(),
		PeerEnabled:      true,
		MaxResults:       5,
		BrandCap:         2,
		CategoryCap:      3,
		DiversityMinPool: 5,
	}
}

// weightsFor falls back to the general health blend for unknown goals
func (c Config) weightsFor(goal user.Goal) Weights {
	if w, ok := c.Weights[goal]; ok {
		return w
	}
	if w, ok := c.Weights[user.GoalGeneralHealth]; ok {
		return w
	}
	return DefaultWeights()[user.GoalGeneralHealth]
}

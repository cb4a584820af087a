// Package ranking blends candidate signals into one ordering and selects the final list
package ranking

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
)

// Ranked is a candidate with its final 1-based rank
type Ranked struct {
	Rank      int
	Candidate recommendation.ScoredCandidate
}

// Ranker orders scored candidates. It keeps no state between runs.
type Ranker struct {
	cfg    Config
	logger *zap.Logger
}

// NewRanker creates a Ranker, filling unset limits from DefaultConfig
func NewRanker(cfg Config, logger *zap.Logger) *Ranker {
	def := DefaultConfig()
	if cfg.Weights == nil {
		cfg.Weights = def.Weights
	}
	if cfg.Penalties == (Penalties{}) {
		cfg.Penalties = def.Penalties
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.BrandCap <= 0 {
		cfg.BrandCap = def.BrandCap
	}
	if cfg.CategoryCap <= 0 {
		cfg.CategoryCap = def.CategoryCap
	}
	if cfg.DiversityMinPool <= 0 {
		cfg.DiversityMinPool = def.DiversityMinPool
	}
	return &Ranker{cfg: cfg, logger: logger.Named("ranker")}
}

// CombinedScore blends the candidate's signals for goal and applies the goal penalties
func (r *Ranker) CombinedScore(c recommendation.ScoredCandidate, goal user.Goal) float64 {
	w := r.cfg.weightsFor(goal)
	score := w.Nutrition*c.NutritionScore + w.Similarity*c.NameSimilarity
	if r.cfg.PeerEnabled {
		score += w.Peer * c.PeerScore
	}
	return r.applyPenalties(score, c, goal)
}

func (r *Ranker) applyPenalties(score float64, c recommendation.ScoredCandidate, goal user.Goal) float64 {
	p := r.cfg.Penalties
	n := c.Product.Nutrition()
	switch goal {
	case user.GoalLoseWeight:
		sugar, hasSugar := n.Sugar.Value()
		if hasSugar && sugar > p.SugarExclude {
			return p.ExcludedScore
		}
		if (hasSugar && sugar >= p.SugarPenalty) || c.NutritionScore < p.MinNutritionScore {
			score *= p.Multiplier
		}
	case user.GoalGainMuscle:
		protein, ok := n.Protein.Value()
		if !ok || protein < p.ProteinExclude {
			return p.ExcludedScore
		}
		if protein >= p.ProteinBonusAt {
			score = math.Min(1, score*p.ProteinBonusFactor)
		}
	}
	return score
}

// Rank scores, sorts, diversifies and truncates candidates. Ties keep candidate order.
// maxResults <= 0 uses the configured default.
func (r *Ranker) Rank(candidates []recommendation.ScoredCandidate, goal user.Goal, maxResults int) []Ranked {
	if maxResults <= 0 {
		maxResults = r.cfg.MaxResults
	}

	scored := make([]recommendation.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		c.CombinedScore = r.CombinedScore(c, goal)
		scored[i] = c
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].CombinedScore != scored[j].CombinedScore {
			return scored[i].CombinedScore > scored[j].CombinedScore
		}
		return scored[i].Index < scored[j].Index
	})

	if len(scored) > r.cfg.DiversityMinPool {
		before := len(scored)
		scored = r.diversify(scored)
		r.logger.Debug("Applied diversity cap",
			zap.Int("before", before),
			zap.Int("after", len(scored)),
		)
	}
	if len(scored) > maxResults {
		scored = scored[:maxResults]
	}

	ranked := make([]Ranked, len(scored))
	for i, c := range scored {
		ranked[i] = Ranked{Rank: i + 1, Candidate: c}
	}
	return ranked
}

// diversify drops candidates whose brand or category already reached its cap
func (r *Ranker) diversify(sorted []recommendation.ScoredCandidate) []recommendation.ScoredCandidate {
	brands := make(map[string]int)
	categories := make(map[string]int)
	out := make([]recommendation.ScoredCandidate, 0, len(sorted))
	for _, c := range sorted {
		brand := strings.ToLower(c.Product.Brand())
		category := string(c.Product.Category())
		if brand != "" && brands[brand] >= r.cfg.BrandCap {
			continue
		}
		if category != "" && categories[category] >= r.cfg.CategoryCap {
			continue
		}
		if brand != "" {
			brands[brand]++
		}
		if category != "" {
			categories[category]++
		}
		out = append(out, c)
	}
	return out
}

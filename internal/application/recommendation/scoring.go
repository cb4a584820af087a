package recommendation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nutriswap/recommender/internal/application/filter"
	"github.com/nutriswap/recommender/internal/application/ranking"
	"github.com/nutriswap/recommender/internal/application/scoring"
	"github.com/nutriswap/recommender/internal/domain/product"
	rec "github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
)

type scoreSlot struct {
	candidate rec.ScoredCandidate
	err       error
}

// scoreAll scores candidates in parallel batches. A candidate whose scoring panics
// is skipped and reported; the rest keep their original relative order.
func (s *Service) scoreAll(
	ctx context.Context,
	original product.Product,
	profile user.Profile,
	goal user.Goal,
	candidates []product.Product,
) ([]rec.ScoredCandidate, []string) {
	_, span := s.tracer.Start(ctx, "recommendation.score")
	defer span.End()

	slots := make([]scoreSlot, len(candidates))
	workers := s.cfg.ScoringParallelism
	batch := (len(candidates) + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for from := 0; from < len(candidates); from += batch {
		from, to := from, from+batch
		if to > len(candidates) {
			to = len(candidates)
		}
		g.Go(func() error {
			for i := from; i < to; i++ {
				slots[i] = s.scoreOne(i, original, profile, goal, candidates[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	scored := make([]rec.ScoredCandidate, 0, len(candidates))
	var failures []string
	for i, slot := range slots {
		if slot.err != nil {
			s.deps.Metrics.RecordScoringFailure()
			s.logger.Warn("Skipping candidate that failed to score",
				zap.String("barcode", candidates[i].Barcode()),
				zap.Error(slot.err),
			)
			failures = append(failures, fmt.Sprintf("%s: %v", candidates[i].Barcode(), slot.err))
			continue
		}
		scored = append(scored, slot.candidate)
	}
	return scored, failures
}

func (s *Service) scoreOne(idx int, original product.Product, profile user.Profile, goal user.Goal, p product.Product) (slot scoreSlot) {
	defer func() {
		if r := recover(); r != nil {
			slot = scoreSlot{err: fmt.Errorf("scoring panicked: %v", r)}
		}
	}()

	return scoreSlot{candidate: rec.ScoredCandidate{
		Product:               p,
		Index:                 idx,
		NutritionScore:        scoring.Clamp01(s.deps.Scorer.Score(p, profile, goal)),
		NameSimilarity:        ranking.NameSimilarity(original, p),
		CategoryCompatibility: filter.Compatibility(original.Category(), p.Category()),
		Improvement:           scoring.CompareNutritionImprovement(original, p, goal),
	}}
}

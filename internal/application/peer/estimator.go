// Package peer estimates how much similar shoppers like a candidate product
package peer

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

const (
	// NeutralScore is used whenever there is no usable peer signal
	NeutralScore = 0.5

	maxSimilarUsers   = 10
	minCommonProducts = 3
	fullWeightOverlap = 10.0
	lookupParallelism = 4
)

// Scores holds per-barcode peer scores for one request
type Scores struct {
	values   map[string]float64
	Failures int
}

// Get returns the score for a barcode, or NeutralScore when unknown
func (s Scores) Get(barcode string) float64 {
	if v, ok := s.values[barcode]; ok {
		return v
	}
	return NeutralScore
}

// Estimator computes peer scores from purchase overlap. Lookup failures never
// propagate; they degrade the affected scores to NeutralScore.
type Estimator struct {
	provider outbound.PeerSimilarityProvider
	logger   *zap.Logger
}

// NewEstimator creates an Estimator. A nil provider yields neutral scores.
func NewEstimator(provider outbound.PeerSimilarityProvider, logger *zap.Logger) *Estimator {
	return &Estimator{
		provider: provider,
		logger:   logger.Named("peer-signal-estimator"),
	}
}

// Estimate scores each barcode for userID
func (e *Estimator) Estimate(ctx context.Context, userID string, barcodes []string) Scores {
	scores := Scores{values: make(map[string]float64, len(barcodes))}
	if e.provider == nil || userID == "" || len(barcodes) == 0 {
		return scores
	}

	peers, err := e.provider.GetSimilarUsers(ctx, userID)
	if err != nil {
		e.logger.Warn("Similar user lookup failed, using neutral peer scores",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		scores.Failures++
		return scores
	}
	peers = eligible(peers, userID)
	if len(peers) == 0 {
		return scores
	}

	var (
		mu       sync.Mutex
		failures int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupParallelism)
	for _, barcode := range barcodes {
		barcode := barcode
		g.Go(func() error {
			score, err := e.estimateOne(gctx, peers, barcode)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				e.logger.Debug("Peer purchase lookup failed",
					zap.String("barcode", barcode),
					zap.Error(err),
				)
				return nil
			}
			scores.values[barcode] = score
			return nil
		})
	}
	_ = g.Wait()

	scores.Failures += failures
	return scores
}

func (e *Estimator) estimateOne(ctx context.Context, peers []outbound.SimilarUser, barcode string) (float64, error) {
	var weighted, totalWeight float64
	for _, peer := range peers {
		if err := ctx.Err(); err != nil {
			return NeutralScore, err
		}
		score, err := e.provider.GetPurchaseScore(ctx, peer.UserID, barcode)
		if err != nil {
			return NeutralScore, err
		}
		if score <= 0 {
			continue
		}
		weight := math.Min(1, float64(peer.CommonProductCount)/fullWeightOverlap)
		weighted += math.Min(1, score) * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return NeutralScore, nil
	}
	return weighted / totalWeight, nil
}

// eligible keeps the strongest overlapping peers, excluding the user themself
func eligible(peers []outbound.SimilarUser, userID string) []outbound.SimilarUser {
	out := make([]outbound.SimilarUser, 0, len(peers))
	for _, p := range peers {
		if p.UserID != userID && p.CommonProductCount >= minCommonProducts {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CommonProductCount > out[j].CommonProductCount
	})
	if len(out) > maxSimilarUsers {
		out = out[:maxSimilarUsers]
	}
	return out
}

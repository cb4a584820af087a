package peer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/nutriswap/recommender/internal/ports/outbound"
	"github.com/nutriswap/recommender/test/testutils"
)

func TestEstimate_WeightedAverage(t *testing.T) {
	provider := new(testutils.MockPeerProvider)
	provider.On("GetSimilarUsers", mock.Anything, "me").Return([]outbound.SimilarUser{
		{UserID: "a", CommonProductCount: 10},
		{UserID: "b", CommonProductCount: 5},
		{UserID: "c", CommonProductCount: 2},
	}, nil)
	provider.On("GetPurchaseScore", mock.Anything, "a", "111").Return(1.0, nil)
	provider.On("GetPurchaseScore", mock.Anything, "b", "111").Return(0.4, nil)
	provider.On("GetPurchaseScore", mock.Anything, "a", "222").Return(0.0, nil)
	provider.On("GetPurchaseScore", mock.Anything, "b", "222").Return(0.0, nil)

	scores := NewEstimator(provider, zaptest.NewLogger(t)).Estimate(context.Background(), "me", []string{"111", "222"})

	assert.InDelta(t, (1.0*1+0.4*0.5)/1.5, scores.Get("111"), 1e-9)
	assert.Equal(t, NeutralScore, scores.Get("222"))
	assert.Equal(t, NeutralScore, scores.Get("unknown"))
	assert.Equal(t, 0, scores.Failures)
	provider.AssertNotCalled(t, "GetPurchaseScore", mock.Anything, "c", mock.Anything)
}

func TestEstimate_LimitsToTenPeers(t *testing.T) {
	provider := new(testutils.MockPeerProvider)
	var peers []outbound.SimilarUser
	for i := 0; i < 15; i++ {
		peers = append(peers, outbound.SimilarUser{UserID: string(rune('a' + i)), CommonProductCount: 3 + i})
	}
	provider.On("GetSimilarUsers", mock.Anything, "me").Return(peers, nil)
	provider.On("GetPurchaseScore", mock.Anything, mock.Anything, "111").Return(0.5, nil)

	NewEstimator(provider, zaptest.NewLogger(t)).Estimate(context.Background(), "me", []string{"111"})

	provider.AssertNumberOfCalls(t, "GetPurchaseScore", 10)
	provider.AssertNotCalled(t, "GetPurchaseScore", mock.Anything, "a", "111")
}

func TestEstimate_DegradesOnFailure(t *testing.T) {
	t.Run("similar users lookup", func(t *testing.T) {
		provider := new(testutils.MockPeerProvider)
		provider.On("GetSimilarUsers", mock.Anything, "me").Return(nil, errors.New("db down"))

		scores := NewEstimator(provider, zaptest.NewLogger(t)).Estimate(context.Background(), "me", []string{"111"})

		assert.Equal(t, NeutralScore, scores.Get("111"))
		assert.Equal(t, 1, scores.Failures)
	})

	t.Run("purchase score lookup", func(t *testing.T) {
		provider := new(testutils.MockPeerProvider)
		provider.On("GetSimilarUsers", mock.Anything, "me").Return([]outbound.SimilarUser{{UserID: "a", CommonProductCount: 4}}, nil)
		provider.On("GetPurchaseScore", mock.Anything, "a", "111").Return(0.0, errors.New("timeout"))
		provider.On("GetPurchaseScore", mock.Anything, "a", "222").Return(0.9, nil)

		scores := NewEstimator(provider, zaptest.NewLogger(t)).Estimate(context.Background(), "me", []string{"111", "222"})

		assert.Equal(t, NeutralScore, scores.Get("111"))
		assert.InDelta(t, 0.9, scores.Get("222"), 1e-9)
		assert.Equal(t, 1, scores.Failures)
	})
}

func TestEstimate_NoProvider(t *testing.T) {
	scores := NewEstimator(nil, zaptest.NewLogger(t)).Estimate(context.Background(), "me", []string{"111"})
	assert.Equal(t, NeutralScore, scores.Get("111"))
}

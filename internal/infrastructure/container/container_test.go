package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/nutriswap/recommender/internal/application/filter"
	"github.com/nutriswap/recommender/internal/application/ranking"
	"github.com/nutriswap/recommender/internal/domain/product"
	rec "github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/infrastructure/ai"
	"github.com/nutriswap/recommender/internal/infrastructure/config"
	"github.com/nutriswap/recommender/internal/ports/inbound"
	"github.com/nutriswap/recommender/internal/ports/outbound"
	"github.com/nutriswap/recommender/test/testutils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.Path = ":memory:"
	cfg.Database.AutoMigrate = true
	cfg.Database.Seed = true
	cfg.Completion.Provider = "mock"
	cfg.Completion.Fallbacks = nil
	cfg.Monitoring.EnableTracing = false
	cfg.App.LogLevel = "error"
	return cfg
}

func TestModule_RecommendsFromSeededCatalogue(t *testing.T) {
	var svc inbound.RecommendationService

	app := fxtest.New(t,
		fx.Supply(testConfig(t)),
		Module,
		fx.Populate(&svc),
	)
	app.RequireStart()
	defer app.RequireStop()

	result, err := svc.RecommendForUser(context.Background(), inbound.RecommendRequest{
		UserID:  "demo-user",
		Barcode: "5449000000996",
	})

	require.NoError(t, err)
	assert.Equal(t, rec.StatusOK, result.Status)
	assert.Equal(t, user.GoalLoseWeight, result.Goal)
	require.NotEmpty(t, result.Recommendations)
	testutils.NewRecommendationAssertions(t).Explained(result.Recommendations)
	barcodes := testutils.Barcodes(result.Recommendations)
	assert.Contains(t, barcodes, "5449000131805")
	assert.NotContains(t, barcodes, "5449000000996")
}

func TestModule_ReceiptAndSafety(t *testing.T) {
	var svc inbound.RecommendationService

	app := fxtest.New(t,
		fx.Supply(testConfig(t)),
		Module,
		fx.Populate(&svc),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	analysis, err := svc.AnalyzeReceipt(ctx, inbound.ReceiptRequest{
		UserID: "family-user",
		Items: []rec.PurchasedItem{
			{Barcode: "5000127163154", Quantity: 1},
			{Barcode: "0000000000000", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Len(t, analysis.Items, 2)
	assert.Equal(t, 1, analysis.ItemsAnalyzed)
	assert.Equal(t, 1, analysis.ItemsNotFound)

	report, err := svc.CheckSafetyForUser(ctx, inbound.SafetyRequest{UserID: "family-user", Barcode: "5000436589488"})
	require.NoError(t, err)
	assert.False(t, report.Safe)
}

func TestNewCompletionService(t *testing.T) {
	log := zaptest.NewLogger(t)

	svc, err := NewCompletionService(config.CompletionConfig{Provider: "none"}, log)
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = NewCompletionService(config.CompletionConfig{
		Provider:   "ollama",
		Fallbacks:  []string{"mock", "Mock", "none"},
		OllamaHost: "http://localhost:11434",
	}, log)
	require.NoError(t, err)
	chain, ok := svc.(*ai.ProviderChain)
	require.True(t, ok)
	assert.Equal(t, []string{"ollama", "mock"}, chain.Providers())

	_, err = NewCompletionService(config.CompletionConfig{Provider: "gpt-local"}, log)
	assert.Error(t, err)
}

func TestRankingConfig(t *testing.T) {
	rc, err := RankingConfig(config.RecommendationConfig{
		MaxResults: 3,
		Weights: map[string]ranking.Weights{
			"lose_weight": {Nutrition: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rc.MaxResults)
	assert.Equal(t, 1.0, rc.Weights[user.GoalLoseWeight].Nutrition)
	assert.False(t, rc.PeerEnabled)

	_, err = RankingConfig(config.RecommendationConfig{
		Weights: map[string]ranking.Weights{"bulk": {}},
	})
	assert.Error(t, err)
}

func TestFilterConfig(t *testing.T) {
	fc, err := FilterConfig(config.RecommendationConfig{RequiredFields: []string{"EnergyKcal", " sugar "}})
	require.NoError(t, err)
	assert.Equal(t, []product.Field{product.FieldEnergyKcal, product.FieldSugar}, fc.RequiredFields)
	assert.Equal(t, filter.DefaultConfig().MaxUnitPrice, fc.MaxUnitPrice)

	_, err = FilterConfig(config.RecommendationConfig{RequiredFields: []string{"vitamins"}})
	assert.Error(t, err)
}

func TestModule_MetricsDisabledUsesNop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Monitoring.EnableMetrics = false

	var metrics outbound.MetricsRecorder
	app := fxtest.New(t, fx.Supply(cfg), Module, fx.Populate(&metrics))
	app.RequireStart()
	defer app.RequireStop()

	assert.IsType(t, outbound.NopMetrics{}, metrics)
}

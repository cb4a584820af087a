// Package container wires the recommender with Uber FX
package container

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutriswap/recommender/internal/application/explanation"
	"github.com/nutriswap/recommender/internal/application/filter"
	"github.com/nutriswap/recommender/internal/application/peer"
	"github.com/nutriswap/recommender/internal/application/ranking"
	"github.com/nutriswap/recommender/internal/application/recommendation"
	"github.com/nutriswap/recommender/internal/application/scoring"
	"github.com/nutriswap/recommender/internal/domain/product"
	rec "github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/shared"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/infrastructure/ai"
	"github.com/nutriswap/recommender/internal/infrastructure/ai/mock"
	"github.com/nutriswap/recommender/internal/infrastructure/ai/ollama"
	"github.com/nutriswap/recommender/internal/infrastructure/ai/openai"
	"github.com/nutriswap/recommender/internal/infrastructure/cache"
	"github.com/nutriswap/recommender/internal/infrastructure/config"
	"github.com/nutriswap/recommender/internal/infrastructure/monitoring"
	"github.com/nutriswap/recommender/internal/infrastructure/persistence/database"
	gormRepo "github.com/nutriswap/recommender/internal/infrastructure/persistence/gorm"
	"github.com/nutriswap/recommender/internal/infrastructure/persistence/memory"
	"github.com/nutriswap/recommender/internal/ports/inbound"
	"github.com/nutriswap/recommender/internal/ports/outbound"
	"github.com/nutriswap/recommender/pkg/logger"
)

// Module provides every component except configuration
var Module = fx.Options(
	LoggerModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	MonitoringModule,
	CompletionModule,
	ServiceModule,
	LifecycleModule,
)

// ConfigModule loads configuration from path (empty searches the default locations)
func ConfigModule(path string) fx.Option {
	return fx.Provide(func() (*config.Config, error) {
		return config.Load(path)
	})
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the gorm connection, seeded with demo data when configured
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		db, err := database.Open(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.Seed {
			if err := database.Seed(context.Background(), db, log); err != nil {
				log.Warn("Failed to seed database", zap.Error(err))
			}
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return database.Close(db)
			},
		})
		return db, nil
	},
)

// CacheModule provides the shared cache. Redis sits behind a local L1 when enabled;
// an unreachable Redis degrades to the local cache alone.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) outbound.CacheRepository {
		local := memory.NewCacheRepository(cfg.Cache.LocalSize)
		if !cfg.Redis.Enabled {
			log.Info("Using in-memory cache")
			return local
		}

		client, err := cache.NewRedisClient(context.Background(), cfg.Redis, log)
		if err != nil {
			log.Warn("Redis unavailable, using in-memory cache", zap.Error(err))
			return local
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		remote := cache.NewRedisCacheRepository(client, cfg.Redis.KeyPrefix, log)
		return cache.NewTieredCache(local, remote, cfg.Cache.PeerTTL, log)
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewProductRepository,
		fx.As(new(outbound.ProductRepository)),
	),
	fx.Annotate(
		gormRepo.NewUserRepository,
		fx.As(new(outbound.UserRepository)),
	),
	fx.Annotate(
		gormRepo.NewRecommendationLogRepository,
		fx.As(new(outbound.RecommendationLogRepository)),
	),
	gormRepo.NewPeerRepository,
	func(cfg *config.Config, peers *gormRepo.PeerRepository, store outbound.CacheRepository, log *zap.Logger) *cache.CachedPeerProvider {
		return cache.NewCachedPeerProvider(peers, store, cfg.Cache.PeerTTL, log)
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(cfg *config.Config, collector *monitoring.MetricsCollector) outbound.MetricsRecorder {
		if !cfg.Monitoring.EnableMetrics {
			return outbound.NopMetrics{}
		}
		return collector
	},
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
)

// CompletionModule provides the text completion service. Provider "none" yields
// a nil service so every explanation uses the template fallback.
var CompletionModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.TextCompletionService, error) {
		return NewCompletionService(cfg.Completion, log)
	},
)

// NewCompletionService builds the provider chain for the primary provider and its fallbacks
func NewCompletionService(cfg config.CompletionConfig, log *zap.Logger) (outbound.TextCompletionService, error) {
	names := append([]string{cfg.Provider}, cfg.Fallbacks...)

	var providers []ai.Provider
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || name == "none" || seen[name] {
			continue
		}
		seen[name] = true

		p, err := newProvider(name, cfg, log)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		log.Info("Text completion disabled, explanations use templates")
		return nil, nil
	}

	return ai.NewProviderChain(ai.ChainConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerFailures:   cfg.BreakerFailures,
		BreakerCooldown:   cfg.BreakerCooldown,
	}, log, providers...), nil
}

func newProvider(name string, cfg config.CompletionConfig, log *zap.Logger) (ai.Provider, error) {
	switch name {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.AttemptTimeout,
		}, log), nil
	case "ollama":
		return ollama.NewClient(ollama.Config{
			BaseURL:     cfg.OllamaHost,
			Model:       cfg.OllamaModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.AttemptTimeout,
		}, log), nil
	case "mock":
		return mock.NewClient(log), nil
	}
	return nil, fmt.Errorf("unknown completion provider %q", name)
}

// ServiceModule provides the pipeline stages and the recommendation service
var ServiceModule = fx.Provide(
	shared.NewInMemoryDispatcher,
	func(d *shared.InMemoryDispatcher) shared.EventDispatcher { return d },
	func(cfg *config.Config, log *zap.Logger, metrics outbound.MetricsRecorder) (*filter.Chain, error) {
		fc, err := FilterConfig(cfg.Recommendation)
		if err != nil {
			return nil, err
		}
		return filter.NewDefaultChain(fc, log, metrics), nil
	},
	filter.NewAllergenFilter,
	scoring.NewScorer,
	func(cfg *config.Config, provider *cache.CachedPeerProvider, log *zap.Logger) *peer.Estimator {
		if !cfg.Recommendation.PeerEnabled {
			return peer.NewEstimator(nil, log)
		}
		return peer.NewEstimator(provider, log)
	},
	func(cfg *config.Config, log *zap.Logger) (*ranking.Ranker, error) {
		rc, err := RankingConfig(cfg.Recommendation)
		if err != nil {
			return nil, err
		}
		return ranking.NewRanker(rc, log), nil
	},
	func(
		cfg *config.Config,
		completion outbound.TextCompletionService,
		store outbound.CacheRepository,
		metrics outbound.MetricsRecorder,
		log *zap.Logger,
	) *explanation.Generator {
		return explanation.NewGenerator(completion, store, metrics, ExplanationConfig(cfg.Completion, cfg.Cache), log)
	},
	NewRecommendationService,
	func(s *recommendation.Service) inbound.RecommendationService { return s },
)

// ServiceParams groups the collaborators of the recommendation service
type ServiceParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Products  outbound.ProductRepository
	Users     outbound.UserRepository
	Logs      outbound.RecommendationLogRepository
	Chain     *filter.Chain
	Allergens *filter.AllergenFilter
	Scorer    *scoring.Scorer
	Peers     *peer.Estimator
	Ranker    *ranking.Ranker
	Explainer *explanation.Generator
	Events    shared.EventDispatcher
	Metrics   outbound.MetricsRecorder
}

// NewRecommendationService assembles the service from the container
func NewRecommendationService(p ServiceParams) *recommendation.Service {
	return recommendation.NewService(recommendation.Dependencies{
		Products:  p.Products,
		Users:     p.Users,
		Logs:      p.Logs,
		Chain:     p.Chain,
		Allergens: p.Allergens,
		Scorer:    p.Scorer,
		Peers:     p.Peers,
		Ranker:    p.Ranker,
		Explainer: p.Explainer,
		Events:    p.Events,
		Metrics:   p.Metrics,
	}, ServiceConfig(p.Config.Recommendation), p.Logger)
}

// LifecycleModule registers start/stop logging and event handlers
var LifecycleModule = fx.Invoke(
	RegisterEventHandlers,
	RegisterLifecycleHooks,
)

// RegisterEventHandlers logs every generated recommendation set
func RegisterEventHandlers(events shared.EventDispatcher, log *zap.Logger) {
	log = log.Named("events")
	events.Register(rec.GeneratedEvent{}.EventName(), func(event shared.DomainEvent) error {
		e, ok := event.(rec.GeneratedEvent)
		if !ok {
			return nil
		}
		log.Info("Recommendations generated",
			zap.String("request_id", e.RequestID),
			zap.String("user_id", e.UserID),
			zap.String("original_barcode", e.OriginalBarcode),
			zap.Strings("barcodes", e.Barcodes),
			zap.Int("fallback_count", e.FallbackCount),
		)
		return nil
	})
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(lc fx.Lifecycle, cfg *config.Config, chain *filter.Chain, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting NutriSwap recommender",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("completion", cfg.Completion.Provider),
				zap.Strings("filter_stages", chain.Stages()),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down NutriSwap recommender")
			_ = log.Sync()
			return nil
		},
	})
}

// RankingConfig converts the recommendation section into ranker settings
func RankingConfig(cfg config.RecommendationConfig) (ranking.Config, error) {
	rc := ranking.DefaultConfig()
	if len(cfg.Weights) > 0 {
		weights := make(map[user.Goal]ranking.Weights, len(cfg.Weights))
		for name, w := range cfg.Weights {
			goal, err := user.ParseGoal(name)
			if err != nil {
				return ranking.Config{}, fmt.Errorf("recommendation.weights.%s: %w", name, err)
			}
			weights[goal] = w
		}
		rc.Weights = weights
	}
	if cfg.Penalties != (ranking.Penalties{}) {
		rc.Penalties = cfg.Penalties
	}
	rc.PeerEnabled = cfg.PeerEnabled
	if cfg.MaxResults > 0 {
		rc.MaxResults = cfg.MaxResults
	}
	if cfg.BrandCap > 0 {
		rc.BrandCap = cfg.BrandCap
	}
	if cfg.CategoryCap > 0 {
		rc.CategoryCap = cfg.CategoryCap
	}
	if cfg.DiversityMinPool > 0 {
		rc.DiversityMinPool = cfg.DiversityMinPool
	}
	return rc, nil
}

var knownFields = map[string]product.Field{
	strings.ToLower(string(product.FieldEnergyKcal)):    product.FieldEnergyKcal,
	strings.ToLower(string(product.FieldProtein)):       product.FieldProtein,
	strings.ToLower(string(product.FieldFat)):           product.FieldFat,
	strings.ToLower(string(product.FieldSaturatedFat)):  product.FieldSaturatedFat,
	strings.ToLower(string(product.FieldCarbohydrates)): product.FieldCarbohydrates,
	strings.ToLower(string(product.FieldSugar)):         product.FieldSugar,
	strings.ToLower(string(product.FieldFiber)):         product.FieldFiber,
	strings.ToLower(string(product.FieldSodium)):        product.FieldSodium,
}

// FilterConfig converts the recommendation section into hard filter settings
func FilterConfig(cfg config.RecommendationConfig) (filter.Config, error) {
	fc := filter.DefaultConfig()
	if cfg.MaxUnitPrice > 0 {
		fc.MaxUnitPrice = cfg.MaxUnitPrice
	}
	if len(cfg.RequiredFields) == 0 {
		return fc, nil
	}

	fields := make([]product.Field, 0, len(cfg.RequiredFields))
	for _, name := range cfg.RequiredFields {
		f, ok := knownFields[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return filter.Config{}, fmt.Errorf("recommendation.required_fields: unknown nutrient %q", name)
		}
		fields = append(fields, f)
	}
	fc.RequiredFields = fields
	return fc, nil
}

// ExplanationConfig converts completion and cache settings into generator settings
func ExplanationConfig(cfg config.CompletionConfig, cc config.CacheConfig) explanation.Config {
	return explanation.Config{
		MaxAttempts:    cfg.MaxAttempts,
		AttemptTimeout: cfg.AttemptTimeout,
		RequestTimeout: cfg.RequestTimeout,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Parallelism:    cfg.Parallelism,
		CacheTTL:       cc.ExplanationTTL,
	}
}

// ServiceConfig converts the recommendation section into service settings
func ServiceConfig(cfg config.RecommendationConfig) recommendation.Config {
	return recommendation.Config{
		MaxResults:         cfg.MaxResults,
		CandidateLimit:     cfg.CandidateLimit,
		ScoringParallelism: cfg.Parallelism,
		LogTimeout:         cfg.LogTimeout,
	}
}

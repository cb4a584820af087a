// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nutriswap/recommender/internal/application/ranking"
)

// Config holds all application configuration
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Completion     CompletionConfig     `mapstructure:"completion"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Path               string        `mapstructure:"path"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
	Seed               bool          `mapstructure:"seed"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig contains cache lifetimes
type CacheConfig struct {
	PeerTTL        time.Duration `mapstructure:"peer_ttl"`
	ExplanationTTL time.Duration `mapstructure:"explanation_ttl"`
	LocalSize      int           `mapstructure:"local_size"`
}

// CompletionConfig contains text completion provider configuration
type CompletionConfig struct {
	Provider          string        `mapstructure:"provider"`
	Fallbacks         []string      `mapstructure:"fallbacks"`
	OpenAIKey         string        `mapstructure:"openai_key"`
	OpenAIModel       string        `mapstructure:"openai_model"`
	OpenAIBaseURL     string        `mapstructure:"openai_base_url"`
	OllamaHost        string        `mapstructure:"ollama_host"`
	OllamaModel       string        `mapstructure:"ollama_model"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	AttemptTimeout    time.Duration `mapstructure:"attempt_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	Parallelism       int           `mapstructure:"parallelism"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	BreakerFailures   int           `mapstructure:"breaker_failures"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown"`
}

// RecommendationConfig contains pipeline tuning
type RecommendationConfig struct {
	MaxResults       int                        `mapstructure:"max_results"`
	CandidateLimit   int                        `mapstructure:"candidate_limit"`
	Parallelism      int                        `mapstructure:"parallelism"`
	BrandCap         int                        `mapstructure:"brand_cap"`
	CategoryCap      int                        `mapstructure:"category_cap"`
	DiversityMinPool int                        `mapstructure:"diversity_min_pool"`
	PeerEnabled      bool                       `mapstructure:"peer_enabled"`
	Weights          map[string]ranking.Weights `mapstructure:"weights"`
	Penalties        ranking.Penalties          `mapstructure:"penalties"`
	RequiredFields   []string                   `mapstructure:"required_fields"`
	MaxUnitPrice     float64                    `mapstructure:"max_unit_price"`
	LogTimeout       time.Duration              `mapstructure:"log_timeout"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics bool    `mapstructure:"enable_metrics"`
	EnableTracing bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint  string  `mapstructure:"otlp_endpoint"`
	SamplingRate  float64 `mapstructure:"sampling_rate"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nutriswap")
	}

	v.SetEnvPrefix("NUTRISWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Defaults cover a missing file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "NutriSwap")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "nutriswap.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "nutriswap")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", true)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "nutriswap:")

	// Cache defaults
	v.SetDefault("cache.peer_ttl", "1h")
	v.SetDefault("cache.explanation_ttl", "24h")
	v.SetDefault("cache.local_size", 10000)

	// Completion defaults
	v.SetDefault("completion.provider", "mock")
	v.SetDefault("completion.openai_model", "gpt-4o-mini")
	v.SetDefault("completion.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("completion.ollama_host", "http://localhost:11434")
	v.SetDefault("completion.ollama_model", "llama3.2:3b")
	v.SetDefault("completion.temperature", 0.3)
	v.SetDefault("completion.max_tokens", 400)
	v.SetDefault("completion.max_attempts", 3)
	v.SetDefault("completion.attempt_timeout", "8s")
	v.SetDefault("completion.request_timeout", "20s")
	v.SetDefault("completion.initial_backoff", "250ms")
	v.SetDefault("completion.max_backoff", "2s")
	v.SetDefault("completion.parallelism", 3)
	v.SetDefault("completion.requests_per_second", 5)
	v.SetDefault("completion.burst", 5)
	v.SetDefault("completion.breaker_failures", 5)
	v.SetDefault("completion.breaker_cooldown", "30s")

	// Recommendation defaults
	def := ranking.DefaultConfig()
	weights := make(map[string]interface{}, len(def.Weights))
	for goal, w := range def.Weights {
		weights[string(goal)] = map[string]interface{}{
			"nutrition":  w.Nutrition,
			"similarity": w.Similarity,
			"peer":       w.Peer,
		}
	}
	v.SetDefault("recommendation.max_results", def.MaxResults)
	v.SetDefault("recommendation.candidate_limit", 200)
	v.SetDefault("recommendation.parallelism", 4)
	v.SetDefault("recommendation.brand_cap", def.BrandCap)
	v.SetDefault("recommendation.category_cap", def.CategoryCap)
	v.SetDefault("recommendation.diversity_min_pool", def.DiversityMinPool)
	v.SetDefault("recommendation.peer_enabled", def.PeerEnabled)
	v.SetDefault("recommendation.weights", weights)
	v.SetDefault("recommendation.penalties.excluded_score", def.Penalties.ExcludedScore)
	v.SetDefault("recommendation.penalties.multiplier", def.Penalties.Multiplier)
	v.SetDefault("recommendation.penalties.sugar_exclude", def.Penalties.SugarExclude)
	v.SetDefault("recommendation.penalties.sugar_penalty", def.Penalties.SugarPenalty)
	v.SetDefault("recommendation.penalties.min_nutrition_score", def.Penalties.MinNutritionScore)
	v.SetDefault("recommendation.penalties.protein_exclude", def.Penalties.ProteinExclude)
	v.SetDefault("recommendation.penalties.protein_bonus_at", def.Penalties.ProteinBonusAt)
	v.SetDefault("recommendation.penalties.protein_bonus_factor", def.Penalties.ProteinBonusFactor)
	v.SetDefault("recommendation.required_fields", []string{"energyKcal", "protein", "fat", "carbohydrates"})
	v.SetDefault("recommendation.max_unit_price", 1000)
	v.SetDefault("recommendation.log_timeout", "2s")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4318")
	v.SetDefault("monitoring.sampling_rate", 0.1)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	providers := append([]string{c.Completion.Provider}, c.Completion.Fallbacks...)
	for _, p := range providers {
		switch p {
		case "openai":
			if c.Completion.OpenAIKey == "" {
				return fmt.Errorf("completion.openai_key is required for the openai provider")
			}
		case "ollama", "mock", "none":
		default:
			return fmt.Errorf("unknown completion provider %q", p)
		}
	}

	if c.Recommendation.MaxResults < 1 || c.Recommendation.MaxResults > 20 {
		return fmt.Errorf("recommendation.max_results must be between 1 and 20")
	}
	if c.Recommendation.CandidateLimit < 1 {
		return fmt.Errorf("recommendation.candidate_limit must be positive")
	}
	for goal, w := range c.Recommendation.Weights {
		if w.Nutrition < 0 || w.Similarity < 0 || w.Peer < 0 {
			return fmt.Errorf("recommendation.weights.%s must not be negative", goal)
		}
	}

	if c.Monitoring.SamplingRate < 0 || c.Monitoring.SamplingRate > 1 {
		return fmt.Errorf("monitoring.sampling_rate must be between 0 and 1")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.Database.DSN()
}

// DSN returns the file path for sqlite or the connection string for postgres
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.Username,
		d.Password,
		d.Database,
		d.SSLMode,
	)
}

// RedisAddr returns the host:port of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

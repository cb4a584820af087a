// Package explanation produces short and detailed justifications for ranked
// recommendations, falling back to a deterministic template when the completion
// service is unavailable.
package explanation

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/ports/outbound"
	"github.com/nutriswap/recommender/pkg/errors"
)

// Config tunes completion calls
type Config struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	RequestTimeout time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Parallelism    int
	CacheTTL       time.Duration
}

// DefaultConfig returns the standard completion settings
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		AttemptTimeout: 8 * time.Second,
		RequestTimeout: 20 * time.Second,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Parallelism:    3,
		CacheTTL:       24 * time.Hour,
	}
}

// Fallback reasons reported to metrics
const (
	reasonDisabled  = "disabled"
	reasonMalformed = "malformed"
	reasonPermanent = "permanent"
	reasonExhausted = "exhausted"
	reasonCanceled  = "canceled"
)

// Generator explains recommendations. It is safe for concurrent use.
type Generator struct {
	completion outbound.TextCompletionService
	cache      outbound.CacheRepository
	metrics    outbound.MetricsRecorder
	cfg        Config
	logger     *zap.Logger
}

// NewGenerator creates a Generator. completion and cache may be nil.
func NewGenerator(
	completion outbound.TextCompletionService,
	cache outbound.CacheRepository,
	metrics outbound.MetricsRecorder,
	cfg Config,
	logger *zap.Logger,
) *Generator {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = def.Parallelism
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Generator{
		completion: completion,
		cache:      cache,
		metrics:    metrics,
		cfg:        cfg,
		logger:     logger.Named("explanation-generator"),
	}
}

// Explain returns an explanation for one recommendation. The explanation is
// always usable; the error only describes why the fallback was used.
func (g *Generator) Explain(ctx context.Context, req Request) (recommendation.Explanation, error) {
	ctx, span := otel.Tracer("nutriswap/explanation").Start(ctx, "explanation.generate")
	defer span.End()
	span.SetAttributes(attribute.String("candidate.barcode", req.Candidate.Product.Barcode()))

	if g.completion == nil {
		g.metrics.RecordFallback(reasonDisabled)
		return Fallback(req), nil
	}

	key := cacheKey(req)
	if cached, ok := g.fromCache(ctx, key); ok {
		return cached, nil
	}

	short, detailed, err := g.complete(ctx, req)
	if err != nil {
		reason := fallbackReason(ctx, err)
		g.metrics.RecordFallback(reason)
		g.logger.Error("Explanation fell back to template",
			zap.String("barcode", req.Candidate.Product.Barcode()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		span.SetAttributes(attribute.String("explanation.fallback", reason))
		return Fallback(req), err
	}

	exp := recommendation.Explanation{
		Reasoning:         short,
		DetailedReasoning: fitWords(detailed, closingSentences, minDetailWords, maxDetailWords),
		Source:            recommendation.SourceCompletion,
	}
	g.toCache(ctx, key, exp)
	return exp, nil
}

// complete calls the completion service with per-attempt timeouts and exponential
// backoff. Malformed responses and non-transient failures are not retried.
func (g *Generator) complete(ctx context.Context, req Request) (string, string, error) {
	prompt := BuildPrompt(req)

	var short, detailed string
	attempt := 0
	operation := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		defer cancel()

		text, err := g.completion.Complete(attemptCtx, prompt)
		if err != nil {
			g.metrics.RecordCompletionAttempt("error")
			if ctx.Err() != nil || !outbound.IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		s, d, err := Parse(text)
		if err != nil {
			g.metrics.RecordCompletionAttempt("malformed")
			return backoff.Permanent(err)
		}
		g.metrics.RecordCompletionAttempt("success")
		short, detailed = s, d
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.cfg.InitialBackoff
	b.MaxInterval = g.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.cfg.MaxAttempts-1)), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		g.logger.Warn("Completion attempt failed, retrying",
			zap.String("barcode", req.Candidate.Product.Barcode()),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		return "", "", err
	}
	return short, detailed, nil
}

func fallbackReason(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return reasonCanceled
	case errors.Is(err, errors.CodeCompletionMalformed):
		return reasonMalformed
	case outbound.IsTransient(err):
		return reasonExhausted
	default:
		return reasonPermanent
	}
}

// ExplainAll explains ranked candidates concurrently under the request timeout.
// Results keep the input order; errors are returned for diagnostics only.
func (g *Generator) ExplainAll(
	ctx context.Context,
	profile user.Profile,
	goal user.Goal,
	original product.Product,
	ranked []recommendation.ScoredCandidate,
) ([]recommendation.Explanation, []string) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	explanations := make([]recommendation.Explanation, len(ranked))
	errs := make([]error, len(ranked))

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Parallelism)
	for i, c := range ranked {
		i, c := i, c
		eg.Go(func() error {
			explanations[i], errs[i] = g.Explain(ctx, Request{
				Profile:   profile,
				Goal:      goal,
				Original:  original,
				Candidate: c,
			})
			return nil
		})
	}
	_ = eg.Wait()

	var messages []string
	for i, err := range errs {
		if err != nil {
			messages = append(messages, fmt.Sprintf("%s: %v", ranked[i].Product.Barcode(), err))
		}
	}
	return explanations, messages
}

type cachedExplanation struct {
	Reasoning         string `json:"reasoning"`
	DetailedReasoning string `json:"detailed_reasoning"`
}

// cacheKey identifies an explanation by the products and a hash of the rendered
// prompt, so shoppers with different profiles never share text
func cacheKey(req Request) string {
	return fmt.Sprintf("explanation:%s:%s:%s:%s",
		req.goal(), req.Original.Barcode(), req.Candidate.Product.Barcode(), hashPrompt(BuildPrompt(req)))
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("%x", sum)[:16]
}

func (g *Generator) fromCache(ctx context.Context, key string) (recommendation.Explanation, bool) {
	if g.cache == nil {
		return recommendation.Explanation{}, false
	}
	data, err := g.cache.Get(ctx, key)
	if err != nil {
		return recommendation.Explanation{}, false
	}
	var c cachedExplanation
	if err := json.Unmarshal(data, &c); err != nil || c.Reasoning == "" || c.DetailedReasoning == "" {
		return recommendation.Explanation{}, false
	}
	return recommendation.Explanation{
		Reasoning:         c.Reasoning,
		DetailedReasoning: c.DetailedReasoning,
		Source:            recommendation.SourceCache,
	}, true
}

func (g *Generator) toCache(ctx context.Context, key string, exp recommendation.Explanation) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(cachedExplanation{Reasoning: exp.Reasoning, DetailedReasoning: exp.DetailedReasoning})
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, data, g.cfg.CacheTTL); err != nil {
		g.logger.Debug("Failed to cache explanation", zap.String("key", key), zap.Error(err))
	}
}

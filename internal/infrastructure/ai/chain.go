// Package ai wires text completion providers into a single rate-limited
// service with per-provider circuit breakers and ordered fallback.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nutriswap/recommender/internal/ports/outbound"
	"github.com/nutriswap/recommender/pkg/circuit"
)

// Provider is a named completion backend
type Provider interface {
	outbound.TextCompletionService
	Name() string
}

// ChainConfig tunes the provider chain
type ChainConfig struct {
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   int
	BreakerCooldown   time.Duration
}

type guardedProvider struct {
	provider Provider
	breaker  *circuit.Breaker
}

// ProviderChain tries providers in order until one answers
type ProviderChain struct {
	providers []guardedProvider
	limiter   *rate.Limiter
	logger    *zap.Logger
}

var _ outbound.TextCompletionService = (*ProviderChain)(nil)

// NewProviderChain creates a chain over providers, primary first
func NewProviderChain(cfg ChainConfig, logger *zap.Logger, providers ...Provider) *ProviderChain {
	logger = logger.Named("completion-chain")

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	chain := &ProviderChain{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
	for _, p := range providers {
		chain.providers = append(chain.providers, guardedProvider{
			provider: p,
			breaker: circuit.New(p.Name(), circuit.Config{
				FailureThreshold: cfg.BreakerFailures,
				Timeout:          cfg.BreakerCooldown,
				IsFailure: func(err error) bool {
					return !errors.Is(err, context.Canceled)
				},
				OnStateChange: func(name string, from, to circuit.State) {
					logger.Warn("Completion provider breaker changed state",
						zap.String("provider", name),
						zap.String("from", from.String()),
						zap.String("to", to.String()),
					)
				},
			}),
		})
	}
	return chain
}

// Providers returns the provider names in call order
func (c *ProviderChain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.provider.Name()
	}
	return names
}

// Complete waits for the rate limiter, then asks each provider in turn. The
// returned error is transient when any provider failed transiently.
func (c *ProviderChain) Complete(ctx context.Context, prompt string) (string, error) {
	if len(c.providers) == 0 {
		return "", outbound.NewCompletionError("chain", http.StatusNotImplemented, errors.New("no completion providers configured"))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", outbound.NewCompletionError("chain", http.StatusTooManyRequests, fmt.Errorf("rate limit: %w", err))
	}

	var firstTransient, last error
	for _, gp := range c.providers {
		var text string
		err := gp.breaker.Execute(func() error {
			var callErr error
			text, callErr = gp.provider.Complete(ctx, prompt)
			return callErr
		})
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if errors.Is(err, circuit.ErrOpen) {
			err = outbound.NewCompletionError(gp.provider.Name(), http.StatusServiceUnavailable, err)
		}
		c.logger.Debug("Completion provider failed",
			zap.String("provider", gp.provider.Name()),
			zap.Error(err),
		)
		if firstTransient == nil && outbound.IsTransient(err) {
			firstTransient = err
		}
		last = err
	}

	if firstTransient != nil {
		return "", firstTransient
	}
	return "", last
}

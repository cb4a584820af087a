// Package recommendation provides the application layer for healthier product
// recommendations. It wires the hard filter chain, scoring, peer signal, ranking
// and explanation stages into the use cases defined in the inbound ports.
package recommendation

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/application/explanation"
	"github.com/nutriswap/recommender/internal/application/filter"
	"github.com/nutriswap/recommender/internal/application/peer"
	"github.com/nutriswap/recommender/internal/application/ranking"
	"github.com/nutriswap/recommender/internal/domain/product"
	rec "github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/shared"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/ports/inbound"
	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// NutritionScorer scores one candidate for a goal
type NutritionScorer interface {
	Score(p product.Product, profile user.Profile, goal user.Goal) float64
}

// Config tunes the service
type Config struct {
	MaxResults         int
	CandidateLimit     int
	ScoringParallelism int
	LogTimeout         time.Duration
}

// DefaultConfig returns the standard service settings
func DefaultConfig() Config {
	return Config{
		MaxResults:         5,
		CandidateLimit:     200,
		ScoringParallelism: 4,
		LogTimeout:         2 * time.Second,
	}
}

// Dependencies groups the collaborators of the service
type Dependencies struct {
	Products  outbound.ProductRepository
	Users     outbound.UserRepository
	Logs      outbound.RecommendationLogRepository
	Chain     *filter.Chain
	Allergens *filter.AllergenFilter
	Scorer    NutritionScorer
	Peers     *peer.Estimator
	Ranker    *ranking.Ranker
	Explainer *explanation.Generator
	Events    shared.EventDispatcher
	Metrics   outbound.MetricsRecorder
}

// Service implements the recommendation use cases
type Service struct {
	deps     Dependencies
	cfg      Config
	validate *validator.Validate
	tracer   trace.Tracer
	logger   *zap.Logger
}

var _ inbound.RecommendationService = (*Service)(nil)

// NewService creates a new recommendation service
func NewService(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = def.CandidateLimit
	}
	if cfg.ScoringParallelism <= 0 {
		cfg.ScoringParallelism = def.ScoringParallelism
	}
	if cfg.LogTimeout <= 0 {
		cfg.LogTimeout = def.LogTimeout
	}
	if deps.Metrics == nil {
		deps.Metrics = outbound.NopMetrics{}
	}
	return &Service{
		deps:     deps,
		cfg:      cfg,
		validate: validator.New(),
		tracer:   otel.Tracer("nutriswap/recommendation"),
		logger:   logger.Named("recommendation-service"),
	}
}

// CheckProductSafety checks one product against the user's confirmed allergens
func (s *Service) CheckProductSafety(p product.Product, allergens []user.AllergenDeclaration) rec.SafetyReport {
	return s.deps.Allergens.Report(p, allergens)
}

// AnalyzePurchasedItem runs the pipeline for one receipt line item
func (s *Service) AnalyzePurchasedItem(ctx context.Context, in inbound.PurchasedItemInput) rec.Result {
	return s.RecommendForBarcode(ctx, inbound.BarcodeInput{
		Original:   in.Item,
		Profile:    in.Profile,
		Allergens:  in.Allergens,
		Candidates: in.Candidates,
	})
}

// RecommendForBarcode runs the full pipeline over already-resolved inputs. It
// never fails: missing entities and empty candidate pools are reported in the result.
func (s *Service) RecommendForBarcode(ctx context.Context, in inbound.BarcodeInput) rec.Result {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "recommendation.pipeline")
	defer span.End()

	goal := resolveGoal(in.Goal, in.Profile.Goal)
	diag := rec.Diagnostics{RequestID: newRequestID()}
	span.SetAttributes(
		attribute.String("request.id", diag.RequestID),
		attribute.String("user.goal", string(goal)),
		attribute.String("product.barcode", in.Original.Barcode()),
	)

	if err := in.Original.Validate(); err != nil {
		result := rec.NotFound(in.Original.Barcode(), "original product not found")
		result.Goal = goal
		return s.finish(ctx, "recommend", in.Profile.ID, result, diag, start)
	}

	maxResults := in.MaxResults
	if maxResults <= 0 {
		maxResults = s.cfg.MaxResults
	}
	mode := filter.ModeStrict
	if in.UserExpectationMode {
		mode = filter.ModeUserExpectation
	}
	fctx := filter.Context{
		UserAllergens:  in.Allergens,
		TargetCategory: in.Original.Category(),
		Mode:           mode,
	}

	candidates := dedupe(in.Candidates, in.Original.Barcode())
	_, filterSpan := s.tracer.Start(ctx, "recommendation.filter")
	filtered, summary := s.deps.Chain.Run(candidates, fctx)
	filterSpan.SetAttributes(attribute.Int("candidates.initial", summary.InitialCount), attribute.Int("candidates.final", summary.FinalCount))
	filterSpan.End()

	result := rec.Result{
		Status:          rec.StatusOK,
		OriginalBarcode: in.Original.Barcode(),
		Goal:            goal,
		Recommendations: []rec.Recommendation{},
		Summary:         summary,
	}
	if len(filtered) == 0 {
		result.Status = rec.StatusNoCandidates
		result.Reason = "no safe candidates with complete nutrition data were found"
		return s.finish(ctx, "recommend", in.Profile.ID, result, diag, start)
	}

	scored, failures := s.scoreAll(ctx, in.Original, in.Profile, goal, filtered)
	diag.ScoringFailures = failures

	barcodes := make([]string, len(scored))
	for i, c := range scored {
		barcodes[i] = c.Product.Barcode()
	}
	peerScores := s.deps.Peers.Estimate(ctx, in.Profile.ID, barcodes)
	diag.PeerSignalFailures = peerScores.Failures
	for i := range scored {
		scored[i].PeerScore = peerScores.Get(scored[i].Product.Barcode())
	}

	ranked := s.deps.Ranker.Rank(scored, goal, maxResults)
	if len(ranked) == 0 {
		result.Status = rec.StatusNoCandidates
		result.Reason = "no candidates could be scored"
		return s.finish(ctx, "recommend", in.Profile.ID, result, diag, start)
	}

	top := make([]rec.ScoredCandidate, len(ranked))
	for i, r := range ranked {
		top[i] = r.Candidate
	}
	explanations, explainErrs := s.deps.Explainer.ExplainAll(ctx, in.Profile, goal, in.Original, top)
	diag.ExplanationErrors = explainErrs

	recs := make([]rec.Recommendation, len(ranked))
	for i, r := range ranked {
		recs[i] = rec.New(r.Rank, r.Candidate, explanations[i])
		if explanations[i].Source == rec.SourceFallback {
			diag.FallbackCount++
		}
	}
	result.Recommendations = recs

	return s.finish(ctx, "recommend", in.Profile.ID, result, diag, start)
}

// finish stamps diagnostics, records metrics and persists the run
func (s *Service) finish(ctx context.Context, operation, userID string, result rec.Result, diag rec.Diagnostics, start time.Time) rec.Result {
	diag.Duration = time.Since(start)
	result.Diagnostics = diag
	s.deps.Metrics.RecordRequest(operation, string(result.Status), diag.Duration)

	s.logger.Info("Recommendation run finished",
		zap.String("request_id", diag.RequestID),
		zap.String("user_id", userID),
		zap.String("barcode", result.OriginalBarcode),
		zap.String("status", string(result.Status)),
		zap.Int("recommendations", len(result.Recommendations)),
		zap.Int("fallbacks", diag.FallbackCount),
		zap.Duration("duration", diag.Duration),
	)

	if result.Status == rec.StatusOK {
		s.saveLog(ctx, userID, result)
		s.dispatch(userID, result)
	}
	return result
}

func (s *Service) saveLog(ctx context.Context, userID string, result rec.Result) {
	if s.deps.Logs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LogTimeout)
	defer cancel()

	err := s.deps.Logs.Save(ctx, outbound.RecommendationLog{
		RequestID:       result.Diagnostics.RequestID,
		UserID:          userID,
		OriginalBarcode: result.OriginalBarcode,
		Goal:            result.Goal,
		Status:          string(result.Status),
		Barcodes:        recommendationBarcodes(result.Recommendations),
		FallbackCount:   result.Diagnostics.FallbackCount,
		Duration:        result.Diagnostics.Duration,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to save recommendation log",
			zap.String("request_id", result.Diagnostics.RequestID),
			zap.Error(err),
		)
	}
}

func (s *Service) dispatch(userID string, result rec.Result) {
	if s.deps.Events == nil {
		return
	}
	err := s.deps.Events.Dispatch(rec.GeneratedEvent{
		RequestID:       result.Diagnostics.RequestID,
		UserID:          userID,
		OriginalBarcode: result.OriginalBarcode,
		Barcodes:        recommendationBarcodes(result.Recommendations),
		FallbackCount:   result.Diagnostics.FallbackCount,
		GeneratedAt:     time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Event handler failed", zap.String("request_id", result.Diagnostics.RequestID), zap.Error(err))
	}
}

func recommendationBarcodes(recs []rec.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Product().Barcode()
	}
	return out
}

// dedupe drops the original product and repeated barcodes, keeping the first occurrence
func dedupe(candidates []product.Product, originalBarcode string) []product.Product {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]product.Product, 0, len(candidates))
	for _, c := range candidates {
		b := c.Barcode()
		if b != "" {
			if b == originalBarcode {
				continue
			}
			if _, dup := seen[b]; dup {
				continue
			}
			seen[b] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}

func resolveGoal(override, profileGoal user.Goal) user.Goal {
	for _, g := range []user.Goal{override, profileGoal} {
		if g == "" {
			continue
		}
		if parsed, err := user.ParseGoal(string(g)); err == nil {
			return parsed
		}
	}
	return user.GoalGeneralHealth
}

package recommendation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/application/filter"
	"github.com/nutriswap/recommender/internal/domain/product"
	rec "github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/ports/inbound"
	"github.com/nutriswap/recommender/pkg/errors"
)

func newRequestID() string {
	return uuid.NewString()
}

// RecommendForUser resolves the user and product from the repositories and runs
// the pipeline. Missing entities are reported in the result; only infrastructure
// failures are returned as errors.
func (s *Service) RecommendForUser(ctx context.Context, req inbound.RecommendRequest) (rec.Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return rec.Result{}, errors.NewValidationError(err.Error())
	}
	start := time.Now()

	profile, allergens, found, err := s.loadUser(ctx, req.UserID)
	if err != nil {
		return rec.Result{}, err
	}
	if !found {
		return s.notFound("recommend", req.Barcode, "user not found", start), nil
	}

	lookup, err := s.deps.Products.GetByBarcode(ctx, req.Barcode)
	if err != nil {
		return rec.Result{}, errors.NewDatabaseError("get product", err)
	}
	if !lookup.Found {
		return s.notFound("recommend", req.Barcode, "product not found", start), nil
	}

	candidates, err := s.loadCandidates(ctx, lookup.Product.Category(), req.UserExpectationMode)
	if err != nil {
		return rec.Result{}, err
	}

	return s.RecommendForBarcode(ctx, inbound.BarcodeInput{
		Original:            lookup.Product,
		Profile:             profile,
		Allergens:           allergens,
		Candidates:          candidates,
		Goal:                user.Goal(req.Goal),
		MaxResults:          req.MaxResults,
		UserExpectationMode: req.UserExpectationMode,
	}), nil
}

// AnalyzeReceipt runs the pipeline for every receipt line. Unknown barcodes are
// reported per line and never abort the receipt.
func (s *Service) AnalyzeReceipt(ctx context.Context, req inbound.ReceiptRequest) (rec.ReceiptAnalysis, error) {
	if err := s.validate.Struct(req); err != nil {
		return rec.ReceiptAnalysis{}, errors.NewValidationError(err.Error())
	}
	start := time.Now()

	analysis := rec.ReceiptAnalysis{
		Status: rec.StatusOK,
		UserID: req.UserID,
		Items:  make([]rec.ItemAnalysis, 0, len(req.Items)),
	}

	profile, allergens, found, err := s.loadUser(ctx, req.UserID)
	if err != nil {
		return rec.ReceiptAnalysis{}, err
	}
	if !found {
		analysis.Status = rec.StatusNotFound
		analysis.Reason = "user not found"
		s.deps.Metrics.RecordRequest("receipt", string(analysis.Status), time.Since(start))
		return analysis, nil
	}

	for _, item := range req.Items {
		lookup, err := s.deps.Products.GetByBarcode(ctx, item.Barcode)
		if err != nil {
			return rec.ReceiptAnalysis{}, errors.NewDatabaseError("get product", err)
		}
		if !lookup.Found {
			analysis.ItemsNotFound++
			analysis.Items = append(analysis.Items, rec.ItemAnalysis{
				Item:   item,
				Result: rec.NotFound(item.Barcode, "product not found"),
			})
			continue
		}

		candidates, err := s.loadCandidates(ctx, lookup.Product.Category(), false)
		if err != nil {
			return rec.ReceiptAnalysis{}, err
		}
		result := s.AnalyzePurchasedItem(ctx, inbound.PurchasedItemInput{
			Item:       lookup.Product,
			Profile:    profile,
			Allergens:  allergens,
			Candidates: candidates,
		})

		analysis.ItemsAnalyzed++
		if len(result.Recommendations) > 0 {
			analysis.ItemsWithAlternatives++
		}
		analysis.Items = append(analysis.Items, rec.ItemAnalysis{Item: item, Result: result})
	}

	s.deps.Metrics.RecordRequest("receipt", string(analysis.Status), time.Since(start))
	s.logger.Info("Receipt analyzed",
		zap.String("user_id", req.UserID),
		zap.Int("items", len(req.Items)),
		zap.Int("with_alternatives", analysis.ItemsWithAlternatives),
		zap.Int("not_found", analysis.ItemsNotFound),
	)
	return analysis, nil
}

// CheckSafetyForUser checks a stored product against a stored user's allergens
func (s *Service) CheckSafetyForUser(ctx context.Context, req inbound.SafetyRequest) (rec.SafetyReport, error) {
	if err := s.validate.Struct(req); err != nil {
		return rec.SafetyReport{}, errors.NewValidationError(err.Error())
	}

	_, allergens, found, err := s.loadUser(ctx, req.UserID)
	if err != nil {
		return rec.SafetyReport{}, err
	}
	if !found {
		return rec.SafetyReport{}, errors.NewUserNotFoundError(req.UserID)
	}

	lookup, err := s.deps.Products.GetByBarcode(ctx, req.Barcode)
	if err != nil {
		return rec.SafetyReport{}, errors.NewDatabaseError("get product", err)
	}
	if !lookup.Found {
		return rec.SafetyReport{}, errors.NewProductNotFoundError(req.Barcode)
	}
	return s.CheckProductSafety(lookup.Product, allergens), nil
}

// loadUser fetches the profile and allergens. Allergen lookup failures are
// returned rather than ignored so safety filtering never runs without them.
func (s *Service) loadUser(ctx context.Context, userID string) (user.Profile, []user.AllergenDeclaration, bool, error) {
	lookup, err := s.deps.Users.GetProfile(ctx, userID)
	if err != nil {
		return user.Profile{}, nil, false, errors.NewDatabaseError("get profile", err)
	}
	if !lookup.Found {
		return user.Profile{}, nil, false, nil
	}
	allergens, err := s.deps.Users.GetAllergens(ctx, userID)
	if err != nil {
		return user.Profile{}, nil, false, errors.NewDatabaseError("get allergens", err)
	}
	return lookup.Profile, allergens, true, nil
}

// loadCandidates fetches the target category and, in user-expectation mode, its adjacent categories
func (s *Service) loadCandidates(ctx context.Context, category product.Category, expand bool) ([]product.Product, error) {
	categories := []product.Category{category}
	if expand {
		categories = append(categories, filter.AdjacentCategories(category)...)
	}

	var out []product.Product
	for _, c := range categories {
		products, err := s.deps.Products.GetByCategory(ctx, c, s.cfg.CandidateLimit)
		if err != nil {
			return nil, errors.NewDatabaseError("get candidates", err)
		}
		out = append(out, products...)
	}
	return out, nil
}

func (s *Service) notFound(operation, barcode, reason string, start time.Time) rec.Result {
	result := rec.NotFound(barcode, reason)
	result.Diagnostics = rec.Diagnostics{RequestID: newRequestID(), Duration: time.Since(start)}
	s.deps.Metrics.RecordRequest(operation, string(result.Status), result.Diagnostics.Duration)
	s.logger.Info("Recommendation request target not found",
		zap.String("barcode", barcode),
		zap.String("reason", reason),
	)
	return result
}

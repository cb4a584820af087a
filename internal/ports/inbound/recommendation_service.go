// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
)

// RecommendationService defines the recommendation use cases
type RecommendationService interface {
	// Pipeline operations over already-resolved inputs
	RecommendForBarcode(ctx context.Context, in BarcodeInput) recommendation.Result
	AnalyzePurchasedItem(ctx context.Context, in PurchasedItemInput) recommendation.Result
	CheckProductSafety(p product.Product, allergens []user.AllergenDeclaration) recommendation.SafetyReport

	// Repository-backed operations
	RecommendForUser(ctx context.Context, req RecommendRequest) (recommendation.Result, error)
	AnalyzeReceipt(ctx context.Context, req ReceiptRequest) (recommendation.ReceiptAnalysis, error)
	CheckSafetyForUser(ctx context.Context, req SafetyRequest) (recommendation.SafetyReport, error)
}

// BarcodeInput is everything the pipeline needs for one scanned product
type BarcodeInput struct {
	Original   product.Product
	Profile    user.Profile
	Allergens  []user.AllergenDeclaration
	Candidates []product.Product
	// Goal overrides Profile.Goal when set
	Goal       user.Goal
	MaxResults int
	// UserExpectationMode allows adjacent categories instead of exact matches
	UserExpectationMode bool
}

// PurchasedItemInput runs the pipeline for one receipt line
type PurchasedItemInput struct {
	Item       product.Product
	Profile    user.Profile
	Allergens  []user.AllergenDeclaration
	Candidates []product.Product
}

// RecommendRequest asks for alternatives to a barcode for a stored user
type RecommendRequest struct {
	UserID              string `json:"user_id" validate:"required,max=64"`
	Barcode             string `json:"barcode" validate:"required,max=32"`
	Goal                string `json:"goal,omitempty" validate:"omitempty,oneof=lose_weight gain_muscle maintain general_health"`
	MaxResults          int    `json:"max_results,omitempty" validate:"gte=0,lte=20"`
	UserExpectationMode bool   `json:"user_expectation_mode,omitempty"`
}

// ReceiptRequest asks for alternatives for every line of a receipt
type ReceiptRequest struct {
	UserID string                         `json:"user_id" validate:"required,max=64"`
	Items  []recommendation.PurchasedItem `json:"items" validate:"required,min=1,max=100,dive"`
}

// SafetyRequest checks one stored product against a stored user's allergens
type SafetyRequest struct {
	UserID  string `json:"user_id" validate:"required,max=64"`
	Barcode string `json:"barcode" validate:"required,max=32"`
}

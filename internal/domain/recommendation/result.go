package recommendation

import (
	"time"

	"github.com/nutriswap/recommender/internal/domain/user"
)

// Status is the outcome of one pipeline run
type Status string

const (
	StatusOK           Status = "ok"
	StatusNoCandidates Status = "no_candidates"
	StatusNotFound     Status = "not_found"
)

// FilterStats counts what one hard filter stage did
type FilterStats struct {
	Stage          string `json:"stage"`
	TotalProcessed int    `json:"total_processed"`
	FilteredCount  int    `json:"filtered_count"`
	Passed         int    `json:"passed"`
}

// ChainSummary describes a full hard filter chain run
type ChainSummary struct {
	InitialCount int           `json:"initial_count"`
	FinalCount   int           `json:"final_count"`
	FilterRate   float64       `json:"filter_rate"`
	StoppedEarly bool          `json:"stopped_early"`
	StoppedAt    string        `json:"stopped_at,omitempty"`
	Stages       []FilterStats `json:"stages"`
}

// Diagnostics records recovered failures for one run. It is never shown as an error.
type Diagnostics struct {
	RequestID          string        `json:"request_id"`
	ScoringFailures    []string      `json:"scoring_failures,omitempty"`
	PeerSignalFailures int           `json:"peer_signal_failures"`
	ExplanationErrors  []string      `json:"explanation_errors,omitempty"`
	FallbackCount      int           `json:"fallback_count"`
	Duration           time.Duration `json:"duration"`
}

// Result is the ordinary outcome of a recommendation request, including "not found"
// and "no candidates".
type Result struct {
	Status          Status           `json:"status"`
	Reason          string           `json:"reason,omitempty"`
	OriginalBarcode string           `json:"original_barcode"`
	Goal            user.Goal        `json:"goal"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         ChainSummary     `json:"filter_summary"`
	Diagnostics     Diagnostics      `json:"diagnostics"`
}

// NotFound builds a result for a missing product or user
func NotFound(barcode, reason string) Result {
	return Result{
		Status:          StatusNotFound,
		Reason:          reason,
		OriginalBarcode: barcode,
		Recommendations: []Recommendation{},
	}
}

// PurchasedItem is one receipt line
type PurchasedItem struct {
	Barcode   string  `json:"barcode" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"gte=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// ItemAnalysis is the pipeline result for one receipt line
type ItemAnalysis struct {
	Item   PurchasedItem `json:"item"`
	Result Result        `json:"result"`
}

// ReceiptAnalysis aggregates per-line results for a receipt
type ReceiptAnalysis struct {
	Status                Status         `json:"status"`
	Reason                string         `json:"reason,omitempty"`
	UserID                string         `json:"user_id"`
	Items                 []ItemAnalysis `json:"items"`
	ItemsAnalyzed         int            `json:"items_analyzed"`
	ItemsWithAlternatives int            `json:"items_with_alternatives"`
	ItemsNotFound         int            `json:"items_not_found"`
}

// Package main runs one recommendation request against the configured store
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/infrastructure/cache"
	"github.com/nutriswap/recommender/internal/infrastructure/container"
	"github.com/nutriswap/recommender/internal/infrastructure/monitoring"
	gormRepo "github.com/nutriswap/recommender/internal/infrastructure/persistence/gorm"
	"github.com/nutriswap/recommender/internal/ports/inbound"
	apperrors "github.com/nutriswap/recommender/pkg/errors"
)

type options struct {
	configPath string
	userID     string
	barcode    string
	goal       string
	maxResults int
	expect     bool
	safety     bool
	receipt    string
	record     bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to config file")
	flag.StringVar(&o.userID, "user", "demo-user", "user id")
	flag.StringVar(&o.barcode, "barcode", "", "barcode of the scanned product")
	flag.StringVar(&o.goal, "goal", "", "override the stored goal (lose_weight, gain_muscle, maintain, general_health)")
	flag.IntVar(&o.maxResults, "max", 0, "maximum number of alternatives")
	flag.BoolVar(&o.expect, "expect", false, "allow adjacent categories")
	flag.BoolVar(&o.safety, "safety", false, "only check the barcode against the user's allergens")
	flag.StringVar(&o.receipt, "receipt", "", "JSON file with receipt line items")
	flag.BoolVar(&o.record, "record", false, "store receipt line items as purchases")
	flag.Parse()
	return o
}

// app holds what the command needs from the container
type app struct {
	fx.In

	Service   inbound.RecommendationService
	Purchases *gormRepo.PeerRepository
	PeerCache *cache.CachedPeerProvider
	Logger    *zap.Logger
}

func main() {
	opts := parseFlags()
	if opts.barcode == "" && opts.receipt == "" {
		fmt.Fprintln(os.Stderr, "either -barcode or -receipt is required")
		flag.Usage()
		os.Exit(2)
	}

	var deps app
	fxApp := fx.New(
		fx.NopLogger,
		container.ConfigModule(opts.configPath),
		container.Module,
		fx.Invoke(func(d app) { deps = d }),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := fxApp.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	out, runErr := run(ctx, deps, opts)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
	if err := writeJSON(os.Stdout, out); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

func run(ctx context.Context, deps app, opts options) (interface{}, error) {
	logger := deps.Logger.Named("cli")

	if opts.receipt != "" {
		items, err := readReceipt(opts.receipt)
		if err != nil {
			return nil, err
		}
		analysis, err := deps.Service.AnalyzeReceipt(ctx, inbound.ReceiptRequest{UserID: opts.userID, Items: items})
		if err != nil {
			return nil, err
		}
		if opts.record && analysis.Status == recommendation.StatusOK {
			if err := deps.Purchases.RecordPurchases(ctx, opts.userID, items); err != nil {
				return nil, apperrors.Wrap(err, "failed to record purchases")
			}
			if err := deps.PeerCache.Invalidate(ctx, opts.userID); err != nil {
				logger.Warn("Failed to invalidate peer cache", zap.Error(err))
			}
			logger.Info("Recorded purchases", zap.String("user_id", opts.userID), zap.Int("items", len(items)))
		}
		return analysis, nil
	}

	if opts.safety {
		return deps.Service.CheckSafetyForUser(ctx, inbound.SafetyRequest{UserID: opts.userID, Barcode: opts.barcode})
	}

	result, err := deps.Service.RecommendForUser(ctx, inbound.RecommendRequest{
		UserID:              opts.userID,
		Barcode:             opts.barcode,
		Goal:                opts.goal,
		MaxResults:          opts.maxResults,
		UserExpectationMode: opts.expect,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Recommendation finished", append(monitoring.TraceFields(ctx),
		zap.String("request_id", result.Diagnostics.RequestID))...)
	return result, nil
}

// readReceipt accepts either a bare array of line items or {"items": [...]}
func readReceipt(path string) ([]recommendation.PurchasedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}

	var items []recommendation.PurchasedItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Items []recommendation.PurchasedItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse receipt: %w", err)
	}
	return wrapped.Items, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nutriswap/recommender/internal/domain/product"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/ports/outbound"
)

// MockProductRepository provides a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByBarcode(ctx context.Context, barcode string) (outbound.ProductLookup, error) {
	args := m.Called(ctx, barcode)
	return args.Get(0).(outbound.ProductLookup), args.Error(1)
}

func (m *MockProductRepository) GetByCategory(ctx context.Context, category product.Category, limit int) ([]product.Product, error) {
	args := m.Called(ctx, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

// MockUserRepository provides a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetProfile(ctx context.Context, userID string) (outbound.ProfileLookup, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(outbound.ProfileLookup), args.Error(1)
}

func (m *MockUserRepository) GetAllergens(ctx context.Context, userID string) ([]user.AllergenDeclaration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.AllergenDeclaration), args.Error(1)
}

// MockPeerProvider provides a mock implementation of PeerSimilarityProvider
type MockPeerProvider struct {
	mock.Mock
}

func (m *MockPeerProvider) GetSimilarUsers(ctx context.Context, userID string) ([]outbound.SimilarUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outbound.SimilarUser), args.Error(1)
}

func (m *MockPeerProvider) GetPurchaseScore(ctx context.Context, userID, barcode string) (float64, error) {
	args := m.Called(ctx, userID, barcode)
	return args.Get(0).(float64), args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockLogRepository provides a mock implementation of RecommendationLogRepository
type MockLogRepository struct {
	mock.Mock
}

func (m *MockLogRepository) Save(ctx context.Context, entry outbound.RecommendationLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]outbound.RecommendationLog, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outbound.RecommendationLog), args.Error(1)
}

// ScriptedCompletion replays a fixed sequence of completion outcomes.
// Once the script runs out the last step repeats.
type ScriptedCompletion struct {
	mu      sync.Mutex
	steps   []CompletionStep
	calls   int
	prompts []string
}

// CompletionStep is one scripted completion outcome
type CompletionStep struct {
	Text  string
	Err   error
	Delay time.Duration
}

// NewScriptedCompletion creates a scripted completion service
func NewScriptedCompletion(steps ...CompletionStep) *ScriptedCompletion {
	return &ScriptedCompletion{steps: steps}
}

// AlwaysFail returns a completion service that fails every call with err
func AlwaysFail(err error) *ScriptedCompletion {
	return NewScriptedCompletion(CompletionStep{Err: err})
}

func (s *ScriptedCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	step := CompletionStep{}
	if len(s.steps) > 0 {
		idx := s.calls
		if idx >= len(s.steps) {
			idx = len(s.steps) - 1
		}
		step = s.steps[idx]
	}
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if step.Delay > 0 {
		select {
		case <-time.After(step.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return step.Text, step.Err
}

// Calls returns how many times Complete was invoked
func (s *ScriptedCompletion) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Prompts returns every prompt received so far
func (s *ScriptedCompletion) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

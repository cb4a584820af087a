package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutriswap/recommender/internal/application/explanation"
	"github.com/nutriswap/recommender/internal/infrastructure/ai/mock"
	"github.com/nutriswap/recommender/internal/ports/outbound"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestProviderChain_FallsBackInOrder(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: outbound.NewCompletionError("primary", 503, errors.New("down"))}
	secondary := &fakeProvider{name: "secondary", text: "ok"}
	chain := NewProviderChain(ChainConfig{}, zaptest.NewLogger(t), primary, secondary)

	text, err := chain.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, []string{"primary", "secondary"}, chain.Providers())
}

func TestProviderChain_PrefersTransientError(t *testing.T) {
	transient := outbound.NewCompletionError("a", 429, errors.New("slow down"))
	permanent := outbound.NewCompletionError("b", 401, errors.New("bad key"))
	chain := NewProviderChain(ChainConfig{}, zaptest.NewLogger(t),
		&fakeProvider{name: "a", err: transient},
		&fakeProvider{name: "b", err: permanent},
	)

	_, err := chain.Complete(context.Background(), "prompt")

	assert.True(t, outbound.IsTransient(err))
	assert.ErrorIs(t, err, transient.Err)
}

func TestProviderChain_BreakerSkipsFailingProvider(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: outbound.NewCompletionError("broken", 500, errors.New("boom"))}
	healthy := &fakeProvider{name: "healthy", text: "ok"}
	chain := NewProviderChain(ChainConfig{BreakerFailures: 2, BreakerCooldown: time.Hour}, zaptest.NewLogger(t), broken, healthy)

	for i := 0; i < 5; i++ {
		_, err := chain.Complete(context.Background(), "prompt")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, broken.calls)
	assert.Equal(t, 5, healthy.calls)
}

func TestProviderChain_NoProviders(t *testing.T) {
	chain := NewProviderChain(ChainConfig{}, zaptest.NewLogger(t))

	_, err := chain.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.False(t, outbound.IsTransient(err))
}

func TestProviderChain_CanceledContext(t *testing.T) {
	chain := NewProviderChain(ChainConfig{RequestsPerSecond: 1, Burst: 1}, zaptest.NewLogger(t), &fakeProvider{name: "p", text: "ok"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Complete(ctx, "prompt")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockClient_ProducesParseableExplanation(t *testing.T) {
	client := mock.NewClient(zaptest.NewLogger(t))
	prompt := strings.Join([]string{
		"Shopper:",
		"- goal: weight loss",
		"",
		"Current product:",
		"- name: Cola",
		"",
		"Recommended alternative:",
		"- name: Cola Zero",
		"",
		"Changes per 100g:",
		"- sugar: -39.0g (-100%, positive for this goal)",
		"",
	}, "\n")

	text, err := client.Complete(context.Background(), prompt)
	require.NoError(t, err)

	short, detailed, err := explanation.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "Cola Zero suits your weight loss goal better.", short)
	assert.Contains(t, detailed, "sugar: -39.0g")
	assert.Contains(t, detailed, "than Cola.")
}

package explanation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutriswap/recommender/internal/application/scoring"
	"github.com/nutriswap/recommender/internal/domain/recommendation"
	"github.com/nutriswap/recommender/internal/domain/user"
	"github.com/nutriswap/recommender/internal/infrastructure/persistence/memory"
	"github.com/nutriswap/recommender/internal/ports/outbound"
	"github.com/nutriswap/recommender/test/testutils"
)

const validResponse = `Sure! Here you go:
{"reasoning": "Far less sugar than your cola while keeping the same fizzy taste you enjoy every day",
 "detailed_reasoning": "Cola Zero removes almost all of the sugar found in the original cola, which makes it a much better fit for a weight loss goal. It keeps the fizz and flavour, so the swap is easy to stick with."}`

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		AttemptTimeout: 200 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Parallelism:    2,
	}
}

func sodaRequest() Request {
	original := testutils.NewProductBuilder().
		WithBarcode("100").WithName("Cola").WithBrand("FizzCo").WithCategory("soft-drinks").
		WithEnergy(180).WithSugar(39).WithProtein(0).Build()
	alt := testutils.NewProductBuilder().
		WithBarcode("200").WithName("Cola Zero").WithBrand("FizzCo").WithCategory("soft-drinks").
		WithEnergy(70).WithSugar(0).WithProtein(0).Build()
	return Request{
		Profile:  testutils.NewProfileBuilder().WithGoal(user.GoalLoseWeight).Build(),
		Original: original,
		Candidate: recommendation.ScoredCandidate{
			Product:     alt,
			Improvement: scoring.CompareNutritionImprovement(original, alt, user.GoalLoseWeight),
		},
	}
}

func TestParse(t *testing.T) {
	short, detailed, err := Parse(validResponse)
	require.NoError(t, err)
	assert.LessOrEqual(t, wordCount(short), 15)
	assert.True(t, strings.HasSuffix(short, "."))
	assert.Contains(t, detailed, "Cola Zero")
}

func TestParse_Malformed(t *testing.T) {
	for _, text := range []string{
		"no json here",
		`{"reasoning": "ok"}`,
		`{"reasoning": "", "detailed_reasoning": "x"}`,
		`{"reasoning": "ok", "detailed_reasoning": }`,
	} {
		_, _, err := Parse(text)
		assert.Error(t, err, text)
	}
}

func TestParse_CamelCaseDetail(t *testing.T) {
	_, detailed, err := Parse(`{"reasoning": "Less sugar.", "detailedReasoning": "Much less sugar."}`)
	require.NoError(t, err)
	assert.Equal(t, "Much less sugar.", detailed)
}

func TestBuildPrompt_OnlyRankedCandidate(t *testing.T) {
	req := sodaRequest()
	prompt := BuildPrompt(req)

	assert.Contains(t, prompt, "weight loss")
	assert.Contains(t, prompt, "Cola Zero")
	assert.Contains(t, prompt, "sugar: -39.0g (-100%, positive for this goal)")
	assert.Contains(t, prompt, "detailed_reasoning")
	assert.NotContains(t, prompt, "Diet Lemonade")
}

func TestFallback(t *testing.T) {
	exp := Fallback(sodaRequest())

	assert.Equal(t, recommendation.SourceFallback, exp.Source)
	assert.Equal(t, "FizzCo offers 110 kcal less for your weight loss goal.", exp.Reasoning)
	n := wordCount(exp.DetailedReasoning)
	assert.GreaterOrEqual(t, n, 50)
	assert.LessOrEqual(t, n, 80)
	assert.Contains(t, exp.DetailedReasoning, "100% less sugar")
}

func TestFallback_NeverEmpty(t *testing.T) {
	longBrand := "The Very Old Traditional Family Owned Artisan Beverage Company of Fine Products Limited"
	longName := "Extra Light Sparkling Zero Sugar Cola Flavoured Soft Drink With Natural Lemon Essence"

	long := sodaRequest()
	original := testutils.NewProductBuilder().
		WithBarcode("100").WithName(longName + " Classic").WithBrand(longBrand).WithCategory("soft-drinks").
		WithEnergy(180).WithSugar(39).WithProtein(0).Build()
	alt := testutils.NewProductBuilder().
		WithBarcode("200").WithName(longName).WithBrand(longBrand).WithCategory("soft-drinks").
		WithEnergy(70).WithSugar(0).WithProtein(0).Build()
	long.Original = original
	long.Candidate = recommendation.ScoredCandidate{
		Product:     alt,
		Improvement: scoring.CompareNutritionImprovement(original, alt, user.GoalLoseWeight),
	}

	tests := []struct {
		name string
		req  Request
	}{
		{"empty request", Request{}},
		{"long brand and name", long},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := Fallback(tt.req)

			assert.NotEmpty(t, exp.Reasoning)
			assert.LessOrEqual(t, wordCount(exp.Reasoning), 15)
			assert.True(t, strings.HasSuffix(exp.Reasoning, "goal."), exp.Reasoning)

			n := wordCount(exp.DetailedReasoning)
			assert.GreaterOrEqual(t, n, 50)
			assert.LessOrEqual(t, n, 80)
			for _, sentence := range splitSentences(exp.DetailedReasoning) {
				assert.Greater(t, wordCount(sentence), 3, "fragment %q in %q", sentence, exp.DetailedReasoning)
			}
		})
	}

	short := Fallback(long).Reasoning
	assert.Contains(t, short, "for your weight loss goal.")
	assert.Contains(t, short, "110 kcal less")
}

func TestFitWords_DropsWholeSentences(t *testing.T) {
	sentence := "This sentence has exactly eight words in it."
	text := strings.Repeat(sentence+" ", 12)

	got := fitWords(text, closingSentences, 50, 80)

	assert.Equal(t, strings.TrimSpace(strings.Repeat(sentence+" ", 10)), got)
	assert.Equal(t, "Short one.", fitWords("Short one.", nil, 50, 80))
}

func TestExplain_Success(t *testing.T) {
	completion := testutils.NewScriptedCompletion(testutils.CompletionStep{Text: validResponse})
	g := NewGenerator(completion, nil, nil, fastConfig(), zaptest.NewLogger(t))

	exp, err := g.Explain(context.Background(), sodaRequest())

	require.NoError(t, err)
	assert.Equal(t, recommendation.SourceCompletion, exp.Source)
	assert.LessOrEqual(t, wordCount(exp.Reasoning), 15)
	assert.GreaterOrEqual(t, wordCount(exp.DetailedReasoning), 50)
	assert.LessOrEqual(t, wordCount(exp.DetailedReasoning), 80)
	assert.Equal(t, 1, completion.Calls())
}

func TestExplain_RetriesTransientFailures(t *testing.T) {
	completion := testutils.NewScriptedCompletion(
		testutils.CompletionStep{Err: outbound.NewCompletionError("openai", 429, errors.New("rate limited"))},
		testutils.CompletionStep{Err: outbound.NewCompletionError("openai", 503, errors.New("unavailable"))},
		testutils.CompletionStep{Text: validResponse},
	)
	g := NewGenerator(completion, nil, nil, fastConfig(), zaptest.NewLogger(t))

	exp, err := g.Explain(context.Background(), sodaRequest())

	require.NoError(t, err)
	assert.Equal(t, recommendation.SourceCompletion, exp.Source)
	assert.Equal(t, 3, completion.Calls())
}

func TestExplain_FallsBackAfterExhaustingAttempts(t *testing.T) {
	completion := testutils.AlwaysFail(outbound.NewCompletionError("openai", 500, errors.New("boom")))
	g := NewGenerator(completion, nil, nil, fastConfig(), zaptest.NewLogger(t))

	exp, err := g.Explain(context.Background(), sodaRequest())

	assert.Error(t, err)
	assert.Equal(t, recommendation.SourceFallback, exp.Source)
	assert.NotEmpty(t, exp.Reasoning)
	assert.Equal(t, 3, completion.Calls())
}

func TestExplain_PermanentFailureNotRetried(t *testing.T) {
	completion := testutils.AlwaysFail(outbound.NewCompletionError("openai", 401, errors.New("bad key")))
	g := NewGenerator(completion, nil, nil, fastConfig(), zaptest.NewLogger(t))

	exp, err := g.Explain(context.Background(), sodaRequest())

	assert.Error(t, err)
	assert.Equal(t, recommendation.SourceFallback, exp.Source)
	assert.Equal(t, 1, completion.Calls())
}

func TestExplain_MalformedResponseFallsBack(t *testing.T) {
	completion := testutils.NewScriptedCompletion(testutils.CompletionStep{Text: "I cannot answer that."})
	g := NewGenerator(completion, nil, nil, fastConfig(), zaptest.NewLogger(t))

	exp, err := g.Explain(context.Background(), sodaRequest())

	assert.Error(t, err)
	assert.Equal(t, recommendation.SourceFallback, exp.Source)
	assert.Equal(t, 1, completion.Calls())
}

func TestExplain_AttemptTimeout(t *testing.T) {
	completion := testutils.NewScriptedCompletion(testutils.CompletionStep{Text: validResponse, Delay: time.Second})
	cfg := fastConfig()
	cfg.AttemptTimeout = 10 * time.Millisecond
	cfg.MaxAttempts = 2
	g := NewGenerator(completion, nil, nil, cfg, zaptest.NewLogger(t))

	exp, err := g.Explain(context.Background(), sodaRequest())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, recommendation.SourceFallback, exp.Source)
	assert.Equal(t, 2, completion.Calls())
}

func TestExplain_CancelledRequest(t *testing.T) {
	completion := testutils.NewScriptedCompletion(testutils.CompletionStep{Text: validResponse, Delay: time.Second})
	g := NewGenerator(completion, nil, nil, fastConfig(), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exp, err := g.Explain(ctx, sodaRequest())

	assert.Error(t, err)
	assert.Equal(t, recommendation.SourceFallback, exp.Source)
	assert.Equal(t, 1, completion.Calls())
}

func TestExplain_NoCompletionService(t *testing.T) {
	g := NewGenerator(nil, nil, nil, fastConfig(), zaptest.NewLogger(t))

	exp, err := g.Explain(context.Background(), sodaRequest())

	assert.NoError(t, err)
	assert.Equal(t, recommendation.SourceFallback, exp.Source)
}

func TestExplain_UsesCache(t *testing.T) {
	cache := new(testutils.MockCacheRepository)
	payload, _ := json.Marshal(map[string]string{"reasoning": "Cached short.", "detailed_reasoning": "Cached detail."})
	cache.On("Get", mock.Anything, cacheKey(sodaRequest())).Return(payload, nil)
	completion := testutils.AlwaysFail(errors.New("should not be called"))
	g := NewGenerator(completion, cache, nil, fastConfig(), zaptest.NewLogger(t))

	exp, err := g.Explain(context.Background(), sodaRequest())

	require.NoError(t, err)
	assert.Equal(t, recommendation.SourceCache, exp.Source)
	assert.Equal(t, "Cached short.", exp.Reasoning)
	assert.Equal(t, 0, completion.Calls())
}

func TestExplain_StoresInCache(t *testing.T) {
	cache := new(testutils.MockCacheRepository)
	cache.On("Get", mock.Anything, mock.Anything).Return(nil, outbound.ErrCacheMiss)
	cache.On("Set", mock.Anything, cacheKey(sodaRequest()), mock.Anything, 24*time.Hour).Return(nil)
	completion := testutils.NewScriptedCompletion(testutils.CompletionStep{Text: validResponse})
	cfg := fastConfig()
	cfg.CacheTTL = 24 * time.Hour
	g := NewGenerator(completion, cache, nil, cfg, zaptest.NewLogger(t))

	_, err := g.Explain(context.Background(), sodaRequest())

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestExplain_CacheIsPerProfile(t *testing.T) {
	older := `{"reasoning": "Great for a 72-year-old shopper.", "detailed_reasoning": "Written for the older shopper."}`
	younger := `{"reasoning": "Great for a 19-year-old shopper.", "detailed_reasoning": "Written for the younger shopper."}`
	completion := testutils.NewScriptedCompletion(
		testutils.CompletionStep{Text: older},
		testutils.CompletionStep{Text: younger},
	)
	g := NewGenerator(completion, memory.NewCacheRepository(100), nil, fastConfig(), zaptest.NewLogger(t))

	alice := sodaRequest()
	alice.Profile = testutils.NewProfileBuilder().WithID("alice").WithGoal(user.GoalLoseWeight).WithAge(72).Build()
	bob := sodaRequest()
	bob.Profile = testutils.NewProfileBuilder().WithID("bob").WithGoal(user.GoalLoseWeight).WithAge(19).Build()

	first, err := g.Explain(context.Background(), alice)
	require.NoError(t, err)
	second, err := g.Explain(context.Background(), bob)
	require.NoError(t, err)
	again, err := g.Explain(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, recommendation.SourceCompletion, first.Source)
	assert.Equal(t, recommendation.SourceCompletion, second.Source)
	assert.Equal(t, "Great for a 19-year-old shopper.", second.Reasoning)
	assert.Equal(t, recommendation.SourceCache, again.Source)
	assert.Equal(t, "Great for a 72-year-old shopper.", again.Reasoning)
	assert.Equal(t, 2, completion.Calls())
	assert.NotEqual(t, cacheKey(alice), cacheKey(bob))
}

func TestExplainAll_KeepsOrderAndNeverEmpty(t *testing.T) {
	completion := testutils.AlwaysFail(outbound.NewCompletionError("openai", 503, errors.New("down")))
	g := NewGenerator(completion, nil, nil, fastConfig(), zaptest.NewLogger(t))
	req := sodaRequest()
	second := req.Candidate
	second.Product = testutils.NewProductBuilder().WithBarcode("300").WithName("Sparkling Water").WithBrand("Aqua").Build()

	exps, errs := g.ExplainAll(context.Background(), req.Profile, user.GoalLoseWeight, req.Original,
		[]recommendation.ScoredCandidate{req.Candidate, second})

	require.Len(t, exps, 2)
	assert.Contains(t, exps[0].Reasoning, "FizzCo")
	assert.Contains(t, exps[1].Reasoning, "Aqua")
	for _, e := range exps {
		assert.NotEmpty(t, e.Reasoning)
		assert.Equal(t, recommendation.SourceFallback, e.Source)
	}
	assert.Len(t, errs, 2)
}

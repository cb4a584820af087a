package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("operation failed")

func fail() error    { return errBoom }
func succeed() error { return nil }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Config) (*Breaker, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("test", cfg)
	b.now = c.now
	return b, c
}

func TestNew_DefaultValues(t *testing.T) {
	b := New("test", Config{})

	assert.Equal(t, 5, b.cfg.FailureThreshold)
	assert.Equal(t, 2, b.cfg.SuccessThreshold)
	assert.Equal(t, 30*time.Second, b.cfg.Timeout)
	assert.Equal(t, 1, b.cfg.MaxRequests)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Execute(fail), errBoom)
	}
	assert.Equal(t, StateClosed, b.State())

	assert.ErrorIs(t, b.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, b.State())

	calls := 0
	err := b.Execute(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 0, calls)
	assert.Equal(t, int64(1), b.Stats().TotalRejections)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 2})

	_ = b.Execute(fail)
	require.NoError(t, b.Execute(succeed))
	_ = b.Execute(fail)

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 1, b.Stats().ConsecutiveFailures)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b, c := newTestBreaker(Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Second})

	_ = b.Execute(fail)
	require.Equal(t, StateOpen, b.State())

	c.advance(11 * time.Second)
	require.NoError(t, b.Execute(succeed))
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, c := newTestBreaker(Config{FailureThreshold: 1, Timeout: 10 * time.Second})

	_ = b.Execute(fail)
	c.advance(11 * time.Second)
	_ = b.Execute(fail)

	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Execute(succeed), ErrOpen)
}

func TestBreaker_HalfOpenLimitsTrialCalls(t *testing.T) {
	b, c := newTestBreaker(Config{FailureThreshold: 1, MaxRequests: 1, Timeout: time.Second})
	_ = b.Execute(fail)
	c.advance(2 * time.Second)

	var nested error
	err := b.Execute(func() error {
		nested = b.Execute(succeed)
		return nil
	})

	assert.NoError(t, err)
	assert.ErrorIs(t, nested, ErrOpen)
}

func TestBreaker_IsFailureFilter(t *testing.T) {
	ignored := errors.New("bad request")
	b, _ := newTestBreaker(Config{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, ignored) },
	})

	assert.ErrorIs(t, b.Execute(func() error { return ignored }), ignored)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_StateChangeCallbackAndReset(t *testing.T) {
	var transitions []string
	b, _ := newTestBreaker(Config{
		FailureThreshold: 1,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = b.Execute(fail)
	b.Reset()

	assert.Equal(t, []string{"closed->open", "open->closed"}, transitions)
	assert.Equal(t, Stats{}, b.Stats())
	assert.Equal(t, StateClosed, b.State())
}

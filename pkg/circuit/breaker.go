// Package circuit implements a consecutive-failure circuit breaker that stops
// calling a dependency which keeps failing until a cooldown has passed.
package circuit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrOpen is returned by Execute while the breaker rejects calls
var ErrOpen = errors.New("circuit breaker is open")

// State represents the state of a circuit breaker
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config holds configuration for a circuit breaker
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int

	// SuccessThreshold is the number of successes required to close the circuit when half-open
	SuccessThreshold int

	// Timeout is how long the circuit stays open before a trial call is allowed
	Timeout time.Duration

	// MaxRequests is the maximum number of concurrent trial calls when half-open
	MaxRequests int

	// IsFailure decides whether an error counts against the breaker. Nil counts every error.
	IsFailure func(err error) bool

	// OnStateChange is called when the state changes
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns the standard breaker settings
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// Stats holds statistics about breaker operations
type Stats struct {
	TotalRequests        int64
	TotalSuccesses       int64
	TotalFailures        int64
	TotalRejections      int64
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
}

// Breaker implements the circuit breaker pattern. The protected call runs
// outside the lock so concurrent callers are not serialized.
type Breaker struct {
	name        string
	cfg         Config
	state       State
	stats       Stats
	inFlight    int
	nextAttempt time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// New creates a breaker, filling unset limits from DefaultConfig
func New(name string, cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	return &Breaker{name: name, cfg: cfg, state: StateClosed, now: time.Now}
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// Execute runs fn unless the breaker is open
func (b *Breaker) Execute(fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}
	err := fn()
	b.release(err)
	return err
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.TotalRequests++
	switch b.state {
	case StateOpen:
		if b.now().Before(b.nextAttempt) {
			b.stats.TotalRejections++
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.setState(StateHalfOpen)
	case StateHalfOpen:
		if b.inFlight >= b.cfg.MaxRequests {
			b.stats.TotalRejections++
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
	}
	if b.state == StateHalfOpen {
		b.inFlight++
	}
	return nil
}

func (b *Breaker) release(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen && b.inFlight > 0 {
		b.inFlight--
	}
	if err != nil && (b.cfg.IsFailure == nil || b.cfg.IsFailure(err)) {
		b.onFailure()
		return
	}
	b.onSuccess()
}

func (b *Breaker) onSuccess() {
	b.stats.TotalSuccesses++
	b.stats.ConsecutiveFailures = 0
	b.stats.ConsecutiveSuccesses++

	if b.state == StateHalfOpen && b.stats.ConsecutiveSuccesses >= b.cfg.SuccessThreshold {
		b.setState(StateClosed)
	}
}

func (b *Breaker) onFailure() {
	b.stats.TotalFailures++
	b.stats.ConsecutiveSuccesses = 0
	b.stats.ConsecutiveFailures++

	switch b.state {
	case StateClosed:
		if b.stats.ConsecutiveFailures >= b.cfg.FailureThreshold {
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		// Any failure in half-open state opens the circuit again
		b.setState(StateOpen)
	}
}

func (b *Breaker) setState(newState State) {
	if b.state == newState {
		return
	}
	oldState := b.state
	b.state = newState

	switch newState {
	case StateOpen:
		b.nextAttempt = b.now().Add(b.cfg.Timeout)
		b.inFlight = 0
	case StateHalfOpen:
		b.stats.ConsecutiveSuccesses = 0
	case StateClosed:
		b.stats.ConsecutiveFailures = 0
		b.stats.ConsecutiveSuccesses = 0
		b.inFlight = 0
	}

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, oldState, newState)
	}
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker statistics
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Reset closes the breaker and clears its statistics
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setState(StateClosed)
	b.stats = Stats{}
	b.nextAttempt = time.Time{}
}

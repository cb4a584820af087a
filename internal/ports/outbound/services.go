package outbound

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TextCompletionService turns a prompt into generated text
type TextCompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionError describes a failed completion call
type CompletionError struct {
	Provider   string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s completion failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// NewCompletionError classifies a failure by HTTP status. Rate limits, timeouts and
// server errors are transient; auth and bad requests are not.
func NewCompletionError(provider string, status int, err error) *CompletionError {
	transient := status == 0 || status == 408 || status == 429 || status >= 500
	return &CompletionError{Provider: provider, StatusCode: status, Transient: transient, Err: err}
}

// IsTransient reports whether a completion failure is worth retrying.
// Context deadline errors count as transient; cancellation does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Transient
	}
	return false
}

// MetricsRecorder receives pipeline measurements
type MetricsRecorder interface {
	RecordRequest(operation, status string, duration time.Duration)
	RecordStageRemoved(stage string, removed int)
	RecordCompletionAttempt(outcome string)
	RecordFallback(reason string)
	RecordScoringFailure()
}

// NopMetrics discards all measurements
type NopMetrics struct{}

func (NopMetrics) RecordRequest(string, string, time.Duration) {}
func (NopMetrics) RecordStageRemoved(string, int)              {}
func (NopMetrics) RecordCompletionAttempt(string)              {}
func (NopMetrics) RecordFallback(string)                       {}
func (NopMetrics) RecordScoringFailure()                       {}

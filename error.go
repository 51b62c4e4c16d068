package orderflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError is the expected domain failure: a submitted option
// fell outside its fixed enumerated set. It is raised only by the
// customization stage and is recoverable by resubmitting a corrected
// order; the crew never retries it.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: valid options are %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// IsValidation reports whether err is (or wraps) a ValidationError.
// Callers use this to separate expected domain failures, which belong
// in the order's Result, from defects that should surface to logs and
// monitoring.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Error provides rich context about a crew execution failure: where it
// happened, what order was being processed, and whether the failure was
// a timeout or cancellation rather than a stage error.
type Error struct {
	InputOrder Order
	Err        error
	Path       []Name
	Timestamp  time.Time
	Duration   time.Duration
	Timeout    bool
	Canceled   bool
}

func (e *Error) Error() string {
	location := strings.Join(e.Path, "/")
	if e.Timeout {
		return fmt.Sprintf("%s timed out after %v: %v", location, e.Duration, e.Err)
	}
	if e.Canceled {
		return fmt.Sprintf("%s canceled after %v: %v", location, e.Duration, e.Err)
	}
	return fmt.Sprintf("%s failed after %v: %v", location, e.Duration, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the failure was caused by a deadline.
func (e *Error) IsTimeout() bool {
	return e.Timeout || errors.Is(e.Err, context.DeadlineExceeded)
}

// IsCanceled returns true if the failure was caused by cancellation.
func (e *Error) IsCanceled() bool {
	return e.Canceled || errors.Is(e.Err, context.Canceled)
}

// stageError wraps a stage failure with its location and timing.
func stageError(name Name, order Order, cause error, start time.Time) *Error {
	return &Error{
		InputOrder: order,
		Err:        cause,
		Path:       []Name{name},
		Timestamp:  time.Now(),
		Duration:   time.Since(start),
		Timeout:    errors.Is(cause, context.DeadlineExceeded),
		Canceled:   errors.Is(cause, context.Canceled),
	}
}

// recoverFromPanic converts a stage or crew panic into an *Error so a
// defect in one run halts only that order's pipeline. The recovered
// error is never a ValidationError, keeping defects distinguishable
// from expected domain failures.
func recoverFromPanic(result *Order, err *error, name Name, input Order) {
	if r := recover(); r != nil {
		*result = input
		*err = &Error{
			InputOrder: input,
			Err:        fmt.Errorf("panic: %v", r),
			Path:       []Name{name},
			Timestamp:  time.Now(),
		}
	}
}

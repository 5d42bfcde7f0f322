package uisync

import (
	"errors"
	"fmt"
	"time"
)

// ErrBridgeClosed is returned when waiting on a dialog bridge that was closed.
var ErrBridgeClosed = errors.New("dialog bridge closed")

// ErrSubscriptionCancelled is returned when waiting on a subscription that was cancelled before a dialog arrived.
var ErrSubscriptionCancelled = errors.New("dialog subscription cancelled")

// TimeoutError is returned by WaitFor when a condition did not become true in time.
type TimeoutError struct {
	// Description of the awaited condition, if any.
	Description string
	Elapsed     time.Duration
	Attempts    int
	// LastResult is the result of the final evaluation.
	LastResult bool
	// LastErr is the error of the final evaluation, surfaced for diagnosis.
	LastErr error
}

func (e *TimeoutError) Error() string {
	what := "condition"
	if e.Description != "" {
		what = e.Description
	}
	msg := fmt.Sprintf("timed out after %s waiting for %s (%d attempts", e.Elapsed.Round(time.Millisecond), what, e.Attempts)
	if e.LastErr != nil {
		return fmt.Sprintf("%s): last evaluation failed: %v", msg, e.LastErr)
	}
	return fmt.Sprintf("%s, last result %t)", msg, e.LastResult)
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// DialogTimeoutError is returned when no dialog appeared within the expected time.
type DialogTimeoutError struct {
	Elapsed time.Duration
}

func (e *DialogTimeoutError) Error() string {
	return fmt.Sprintf("no dialog appeared within %s", e.Elapsed.Round(time.Millisecond))
}

// RaceTimeoutError is returned when neither a dialog nor the element condition settled in time.
type RaceTimeoutError struct {
	Elapsed time.Duration
	// Element is the timeout of the element branch, carrying its last observed state.
	Element error
}

func (e *RaceTimeoutError) Error() string {
	msg := fmt.Sprintf("neither dialog nor element condition settled within %s", e.Elapsed.Round(time.Millisecond))
	if e.Element != nil {
		return msg + ": " + e.Element.Error()
	}
	return msg
}

func (e *RaceTimeoutError) Unwrap() error {
	return e.Element
}

// AssertionError is a failed assertion inside RetryUntilPass.
// Bodies return one (see Failf) to signal "not yet"; RetryUntilPass returns the last one on timeout.
type AssertionError struct {
	Message  string
	Attempts int
	Elapsed  time.Duration
}

// Failf creates an assertion failure that RetryUntilPass will retry.
func Failf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

func (e *AssertionError) Error() string {
	if e.Attempts == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (after %d attempts in %s)", e.Message, e.Attempts, e.Elapsed.Round(time.Millisecond))
}

// Package uisync synchronizes sequential test code with asynchronous browser state:
// predicate polling, one-shot native dialog capture, racing a dialog against an element
// condition and retrying assertions until the UI settles.
package uisync

import (
	"context"
	"time"
)

const (
	// DefaultInterval is the poll interval used when a Condition does not set one.
	DefaultInterval = 100 * time.Millisecond
	// DefaultTimeout is the timeout used when a Condition does not set one.
	DefaultTimeout = 5 * time.Second
)

// Predicate evaluates live page state. An error means "not yet true".
type Predicate func(ctx context.Context) (bool, error)

// Condition describes what to wait for and how.
type Condition struct {
	// Description is used in error messages.
	Description string
	Predicate   Predicate
	Interval    time.Duration
	Timeout     time.Duration
}

func (c Condition) withDefaults() Condition {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// WaitFor polls the condition's predicate until it returns true or the timeout elapses.
//
// It returns immediately if the first evaluation is true. Evaluation errors are treated as
// "not yet true"; the error of the final evaluation is carried by the returned *TimeoutError.
// Cancelling ctx stops polling and returns the context error.
func WaitFor(ctx context.Context, cond Condition) error {
	cond = cond.withDefaults()

	start := time.Now()
	deadline := start.Add(cond.Timeout)

	pollCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var (
		attempts   int
		lastResult bool
		lastErr    error
	)
	for {
		attempts++
		ok, err := cond.Predicate(pollCtx)
		if err == nil && ok {
			return nil
		}
		lastResult, lastErr = ok, err

		if ctx.Err() != nil {
			return ctx.Err()
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &TimeoutError{
				Description: cond.Description,
				Elapsed:     time.Since(start),
				Attempts:    attempts,
				LastResult:  lastResult,
				LastErr:     lastErr,
			}
		}

		timer := time.NewTimer(min(cond.Interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

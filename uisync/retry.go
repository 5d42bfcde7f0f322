package uisync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Collect gathers assertion failures of a single attempt.
// It implements require.TestingT, so testify assertions can be used inside RetryUntilPass bodies.
type Collect struct {
	mu       sync.Mutex
	failures []string
}

// Errorf records a failure.
func (c *Collect) Errorf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// FailNow records nothing more and ends the attempt.
func (c *Collect) FailNow() {
	panic(failNow{})
}

// Failed reports whether a failure was recorded.
func (c *Collect) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures) > 0
}

func (c *Collect) err() *AssertionError {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := strings.Join(c.failures, "\n")
	if msg == "" {
		msg = "assertion failed"
	}
	return &AssertionError{Message: msg}
}

type failNow struct{}

// Assertion is a retryable check. Failures recorded on c, or returned as *AssertionError, are
// retried. Any other returned error aborts the retry loop.
type Assertion func(ctx context.Context, c *Collect) error

type retryOptions struct {
	initialInterval time.Duration
	maxInterval     time.Duration
}

// RetryOption configures RetryUntilPass.
type RetryOption func(*retryOptions)

// WithBackoff sets the first and the maximum pause between attempts.
func WithBackoff(initial, max time.Duration) RetryOption {
	return func(o *retryOptions) {
		o.initialInterval = initial
		o.maxInterval = max
	}
}

// RetryUntilPass invokes body until it passes or timeout elapses.
//
// Between attempts it pauses with exponential backoff (100ms up to 1s by default). On timeout the
// most recent *AssertionError is returned, not the first. Errors that are not assertion failures are
// returned immediately without retrying.
func RetryUntilPass(ctx context.Context, timeout time.Duration, body Assertion, opts ...RetryOption) error {
	o := retryOptions{
		initialInterval: 100 * time.Millisecond,
		maxInterval:     time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.initialInterval
	b.MaxInterval = o.maxInterval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	start := time.Now()
	deadline := start.Add(timeout)

	var attempts int
	for {
		attempts++
		err := attempt(ctx, body)
		if err == nil {
			return nil
		}

		var last *AssertionError
		if !errors.As(err, &last) {
			return err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &AssertionError{
				Message:  last.Message,
				Attempts: attempts,
				Elapsed:  time.Since(start),
			}
		}

		timer := time.NewTimer(min(b.NextBackOff(), remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last failure: %s)", ctx.Err(), last.Message)
		case <-timer.C:
		}
	}
}

func attempt(ctx context.Context, body Assertion) (err error) {
	c := &Collect{}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(failNow); ok {
				err = c.err()
				return
			}
			panic(r)
		}
	}()

	if err := body(ctx, c); err != nil {
		return err
	}
	if c.Failed() {
		return c.err()
	}
	return nil
}

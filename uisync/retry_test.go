package uisync_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/uisync"
)

func TestRetryUntilPass_EventuallyPasses(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	err := uisync.RetryUntilPass(context.Background(), time.Second, func(ctx context.Context, c *uisync.Collect) error {
		n := attempts.Add(1)
		assert.Equal(c, int32(3), n, "cart rows")
		return nil
	}, uisync.WithBackoff(5*time.Millisecond, 20*time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetryUntilPass_ReportsMostRecentFailure(t *testing.T) {
	t.Parallel()

	var last atomic.Int32
	err := uisync.RetryUntilPass(context.Background(), 150*time.Millisecond, func(ctx context.Context, c *uisync.Collect) error {
		n := last.Add(1)
		return uisync.Failf("cart has %d rows", n)
	}, uisync.WithBackoff(10*time.Millisecond, 20*time.Millisecond))

	var assertionErr *uisync.AssertionError
	require.ErrorAs(t, err, &assertionErr)
	assert.Equal(t, fmt.Sprintf("cart has %d rows", last.Load()), assertionErr.Message)
	assert.Equal(t, int(last.Load()), assertionErr.Attempts)
	assert.GreaterOrEqual(t, assertionErr.Elapsed, 150*time.Millisecond)
	assert.Greater(t, assertionErr.Attempts, 1)
}

func TestRetryUntilPass_RequireEndsAttempt(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	err := uisync.RetryUntilPass(context.Background(), time.Second, func(ctx context.Context, c *uisync.Collect) error {
		n := attempts.Add(1)
		require.GreaterOrEqual(c, n, int32(2))
		return nil
	}, uisync.WithBackoff(5*time.Millisecond, 10*time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestRetryUntilPass_OtherErrorsAbort(t *testing.T) {
	t.Parallel()

	errBrowserGone := errors.New("target page, context or browser has been closed")
	var attempts atomic.Int32
	err := uisync.RetryUntilPass(context.Background(), time.Second, func(ctx context.Context, c *uisync.Collect) error {
		attempts.Add(1)
		return errBrowserGone
	})

	assert.ErrorIs(t, err, errBrowserGone)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestRetryUntilPass_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	err := uisync.RetryUntilPass(ctx, 5*time.Second, func(ctx context.Context, c *uisync.Collect) error {
		return uisync.Failf("not yet")
	}, uisync.WithBackoff(10*time.Millisecond, 10*time.Millisecond))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "not yet")
}

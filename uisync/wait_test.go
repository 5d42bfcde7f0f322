package uisync_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/uisync"
)

func TestWaitFor_ImmediateSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	start := time.Now()
	err := uisync.WaitFor(context.Background(), uisync.Condition{
		Predicate: func(ctx context.Context) (bool, error) {
			calls.Add(1)
			return true, nil
		},
		Interval: time.Second,
		Timeout:  5 * time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), 100*time.Millisecond, "should not wait for an interval")
}

func TestWaitFor_EventuallyTrue(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	err := uisync.WaitFor(context.Background(), uisync.Condition{
		Predicate: func(ctx context.Context) (bool, error) {
			return calls.Add(1) >= 3, nil
		},
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitFor_TimeoutIsBounded(t *testing.T) {
	t.Parallel()

	start := time.Now()
	err := uisync.WaitFor(context.Background(), uisync.Condition{
		Description: "cart total",
		Predicate: func(ctx context.Context) (bool, error) {
			return false, nil
		},
		Interval: 30 * time.Millisecond,
		Timeout:  200 * time.Millisecond,
	})
	elapsed := time.Since(start)

	var timeoutErr *uisync.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.False(t, timeoutErr.LastResult)
	assert.NoError(t, timeoutErr.LastErr)
	assert.Greater(t, timeoutErr.Attempts, 1)
	assert.Contains(t, err.Error(), "cart total")
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 400*time.Millisecond, "should not overshoot the timeout significantly")
}

func TestWaitFor_TransientErrorsAreNotFatal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	err := uisync.WaitFor(context.Background(), uisync.Condition{
		Predicate: func(ctx context.Context) (bool, error) {
			if calls.Add(1) < 3 {
				return false, errors.New("element not attached")
			}
			return true, nil
		},
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitFor_SurfacesFinalEvaluationError(t *testing.T) {
	t.Parallel()

	errDetached := errors.New("element is not attached to the DOM")
	err := uisync.WaitFor(context.Background(), uisync.Condition{
		Predicate: func(ctx context.Context) (bool, error) {
			return false, errDetached
		},
		Interval: 10 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
	})

	var timeoutErr *uisync.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.ErrorIs(t, err, errDetached)
	assert.Contains(t, err.Error(), "not attached")
}

func TestWaitFor_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	start := time.Now()
	err := uisync.WaitFor(ctx, uisync.Condition{
		Predicate: func(ctx context.Context) (bool, error) {
			return false, nil
		},
		Interval: 10 * time.Millisecond,
		Timeout:  5 * time.Second,
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

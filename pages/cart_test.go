package pages

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/uisync"
)

var errPageClosed = fmt.Errorf("%w: Target page, context or browser has been closed", playwright.ErrTargetClosed)

// locator is embedded under an alias so the embedded field is not named
// Locator, which would shadow the interface's Locator method.
type locator = playwright.Locator

// countLocator answers Count from a script of results and records the calls.
type countLocator struct {
	locator

	calls   atomic.Int32
	results []func() (int, error)
}

func (l *countLocator) Count() (int, error) {
	i := int(l.calls.Add(1)) - 1
	if i >= len(l.results) {
		i = len(l.results) - 1
	}
	return l.results[i]()
}

// closedLocator fails every wait because the page is gone.
type closedLocator struct {
	locator

	calls atomic.Int32
}

func (l *closedLocator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	l.calls.Add(1)
	return errPageClosed
}

func testCartPage(rows, tbody playwright.Locator) *CartPage {
	return &CartPage{
		base: newBase(Deps{Timeouts: config.Timeouts{
			Expect:       time.Second,
			Verification: 2 * time.Second,
			CartUpdate:   2 * time.Second,
		}}),
		tbody:     tbody,
		cartItems: rows,
	}
}

func TestCartPage_VerifyItemsInCart_ClosedPageFailsAtOnce(t *testing.T) {
	t.Parallel()

	rows := &countLocator{results: []func() (int, error){
		func() (int, error) { return 0, errPageClosed },
	}}
	cart := testCartPage(rows, nil)

	start := time.Now()
	err := cart.VerifyItemsInCart(context.Background(), 2)

	require.Error(t, err)
	assert.ErrorIs(t, err, playwright.ErrTargetClosed)
	assert.NotErrorAs(t, err, new(*uisync.AssertionError))
	assert.EqualValues(t, 1, rows.calls.Load())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCartPage_VerifyItemsInCart_RetriesTimeouts(t *testing.T) {
	t.Parallel()

	rows := &countLocator{results: []func() (int, error){
		func() (int, error) { return 0, fmt.Errorf("%w: locator.count", playwright.ErrTimeout) },
		func() (int, error) { return 1, nil },
		func() (int, error) { return 2, nil },
	}}
	cart := testCartPage(rows, nil)

	err := cart.VerifyItemsInCart(context.Background(), 2)

	require.NoError(t, err)
	assert.EqualValues(t, 3, rows.calls.Load())
}

func TestCartPage_VerifyCartContainsProduct_ClosedPageFailsAtOnce(t *testing.T) {
	t.Parallel()

	tbody := &closedLocator{}
	cart := testCartPage(nil, tbody)

	start := time.Now()
	err := cart.VerifyCartContainsProduct(context.Background(), "Samsung galaxy s6")

	assert.ErrorIs(t, err, playwright.ErrTargetClosed)
	assert.EqualValues(t, 1, tbody.calls.Load())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRetryableErr(t *testing.T) {
	t.Parallel()

	_, numErr := strconv.ParseFloat("", 64)

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"closed page", errPageClosed, false},
		{"plain error", errors.New("boom"), false},
		{"playwright timeout", fmt.Errorf("%w: waiting", playwright.ErrTimeout), true},
		{"wait timeout", &uisync.TimeoutError{Elapsed: time.Second}, true},
		{"wait timeout on closed page", &uisync.TimeoutError{Elapsed: time.Second, LastErr: errPageClosed}, false},
		{"price not rendered", fmt.Errorf("row 0: %w", numErr), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := retryableErr("reading", tt.err)

			var assertionErr *uisync.AssertionError
			assert.Equal(t, tt.retryable, errors.As(err, &assertionErr))
			if !tt.retryable {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

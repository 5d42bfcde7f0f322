package uisync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DialogKind is the type of a native browser dialog.
type DialogKind string

const (
	DialogAlert        DialogKind = "alert"
	DialogConfirm      DialogKind = "confirm"
	DialogPrompt       DialogKind = "prompt"
	DialogBeforeUnload DialogKind = "beforeunload"
)

// Resolution is how a dialog gets closed.
type Resolution int

const (
	Accept Resolution = iota
	Dismiss
)

func (r Resolution) String() string {
	if r == Dismiss {
		return "dismiss"
	}
	return "accept"
}

// Dialog is the part of playwright.Dialog the bridge needs.
type Dialog interface {
	Message() string
	Type() string
	Accept(promptText ...string) error
	Dismiss() error
}

// DialogEvent is a captured dialog occurrence.
type DialogEvent struct {
	Message    string
	Kind       DialogKind
	Resolution Resolution
	// ReceivedAt is when the browser delivered the dialog.
	ReceivedAt time.Time
	// ResolveErr is set if accepting or dismissing the dialog failed.
	ResolveErr error
}

// DialogHandler decides how a captured dialog is resolved. A nil handler accepts.
type DialogHandler func(evt DialogEvent) Resolution

// Subscription is a single-use claim on the next dialog.
// It leaves the bridge on first delivery or on Cancel, whichever happens first.
type Subscription struct {
	bridge  *DialogBridge
	handler DialogHandler
	done    chan struct{}

	// guarded by bridge.mu
	delivered bool
	cancelled bool
	event     DialogEvent
}

// Done is closed once the subscription received a dialog or was cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Event returns the captured dialog. The bool is false if nothing was captured (yet).
// The event is complete once Done is closed.
func (s *Subscription) Event() (DialogEvent, bool) {
	select {
	case <-s.done:
	default:
		return DialogEvent{}, false
	}
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	return s.event, s.delivered
}

// Cancel removes the subscription from the bridge.
// It returns false if a dialog was already claimed by this subscription; callers should then read
// the event after Done is closed.
func (s *Subscription) Cancel() bool {
	b := s.bridge
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.delivered {
		return false
	}
	if s.cancelled {
		return true
	}
	s.cancelled = true
	b.remove(s)
	close(s.done)
	return true
}

// Wait blocks until a dialog is captured, the timeout elapses or ctx is done.
// The subscription is cancelled on timeout so a late dialog cannot be claimed by it.
func (s *Subscription) Wait(ctx context.Context, timeout time.Duration) (DialogEvent, error) {
	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		if s.Cancel() {
			return DialogEvent{}, &DialogTimeoutError{Elapsed: time.Since(start)}
		}
		<-s.done
	case <-ctx.Done():
		if s.Cancel() {
			return DialogEvent{}, ctx.Err()
		}
		<-s.done
	}

	evt, ok := s.Event()
	if !ok {
		if s.bridge.isClosed() {
			return DialogEvent{}, ErrBridgeClosed
		}
		return DialogEvent{}, ErrSubscriptionCancelled
	}
	return evt, nil
}

// DialogBridge turns page-level dialog events into one-shot subscriptions.
//
// Dialogs are handed to pending subscriptions in registration order, one dialog per subscription.
// Dialogs nobody subscribed to are resolved with the unhandled resolution (dismiss by default, like
// a browser page without dialog listeners).
type DialogBridge struct {
	mu        sync.Mutex
	pending   []*Subscription
	closed    bool
	closeOnce sync.Once

	unhandled Resolution
	logger    *slog.Logger
	detach    func()
}

// BridgeOption configures a DialogBridge.
type BridgeOption func(*DialogBridge)

// WithUnhandledResolution sets how dialogs without a subscriber are resolved.
func WithUnhandledResolution(r Resolution) BridgeOption {
	return func(b *DialogBridge) {
		b.unhandled = r
	}
}

// WithBridgeLogger sets the logger for dialog activity.
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *DialogBridge) {
		b.logger = logger
	}
}

// NewDialogBridge creates a bridge that is fed through Deliver.
func NewDialogBridge(opts ...BridgeOption) *DialogBridge {
	b := &DialogBridge{
		unhandled: Dismiss,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnNextDialog registers a one-shot consumer for the next dialog.
// On a closed bridge the returned subscription is already done.
func (b *DialogBridge) OnNextDialog(handler DialogHandler) *Subscription {
	s := &Subscription{
		bridge:  b,
		handler: handler,
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.cancelled = true
		close(s.done)
		return s
	}
	b.pending = append(b.pending, s)
	return s
}

// ExpectDialog subscribes to the next dialog, runs action and waits for the dialog.
// The dialog is accepted before the event is returned. A nil action only waits.
func (b *DialogBridge) ExpectDialog(ctx context.Context, timeout time.Duration, action func() error) (DialogEvent, error) {
	sub := b.OnNextDialog(nil)
	if action != nil {
		if err := action(); err != nil {
			sub.Cancel()
			return DialogEvent{}, err
		}
	}
	return sub.Wait(ctx, timeout)
}

// Deliver hands a dialog to the oldest pending subscription and resolves it.
// The resolution is applied before waiters are released.
func (b *DialogBridge) Deliver(d Dialog) {
	evt := DialogEvent{
		Message:    d.Message(),
		Kind:       DialogKind(d.Type()),
		ReceivedAt: time.Now(),
	}

	b.mu.Lock()
	var sub *Subscription
	if len(b.pending) > 0 {
		sub = b.pending[0]
		b.pending = b.pending[1:]
		sub.delivered = true
	}
	b.mu.Unlock()

	if sub == nil {
		evt.Resolution = b.unhandled
		if err := resolve(d, b.unhandled); err != nil {
			b.logger.Warn("Failed to resolve unhandled dialog", slog.String("message", evt.Message), slog.Any("error", err))
		}
		b.logger.Debug("Unhandled dialog", slog.String("kind", string(evt.Kind)), slog.String("message", evt.Message), slog.String("resolution", b.unhandled.String()))
		return
	}

	evt.Resolution = Accept
	if sub.handler != nil {
		evt.Resolution = sub.handler(evt)
	}
	evt.ResolveErr = resolve(d, evt.Resolution)
	b.logger.Debug("Dialog captured", slog.String("kind", string(evt.Kind)), slog.String("message", evt.Message), slog.String("resolution", evt.Resolution.String()))

	b.mu.Lock()
	sub.event = evt
	b.mu.Unlock()
	close(sub.done)
}

// Pending returns the number of subscriptions waiting for a dialog.
func (b *DialogBridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close detaches the bridge from its page and cancels all pending subscriptions.
func (b *DialogBridge) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		pending := b.pending
		b.pending = nil
		for _, s := range pending {
			s.cancelled = true
			close(s.done)
		}
		detach := b.detach
		b.mu.Unlock()

		if detach != nil {
			detach()
		}
	})
}

func (b *DialogBridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// remove must be called with b.mu held.
func (b *DialogBridge) remove(s *Subscription) {
	for i, p := range b.pending {
		if p == s {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return
		}
	}
}

func resolve(d Dialog, r Resolution) error {
	if r == Dismiss {
		return d.Dismiss()
	}
	return d.Accept()
}

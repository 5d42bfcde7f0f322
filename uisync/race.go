package uisync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// OutcomeKind tells which branch of a race settled first.
type OutcomeKind int

const (
	ElementWon OutcomeKind = iota + 1
	DialogWon
)

func (k OutcomeKind) String() string {
	switch k {
	case ElementWon:
		return "element"
	case DialogWon:
		return "dialog"
	default:
		return "none"
	}
}

// Outcome is the result of RaceOutcome. Dialog is only set if Kind is DialogWon.
type Outcome struct {
	Kind      OutcomeKind
	Dialog    DialogEvent
	SettledAt time.Time
	// LateDialog is a dialog the race claimed after the element had already won.
	// It was resolved and is no longer available to later subscriptions.
	LateDialog *DialogEvent
}

type elementResult struct {
	err error
	at  time.Time
}

// RaceOutcome waits for whichever comes first: a dialog claimed by sub, or element becoming true.
//
// Register sub before triggering the UI action, then call RaceOutcome. The losing branch is
// cancelled before RaceOutcome returns: the poll loop is stopped and joined, and sub is removed
// from its bridge, so a later dialog cannot be claimed by this race. If both branches settled,
// the earlier observation wins. Neither branch settling within timeout yields *RaceTimeoutError.
// A timeout <= 0 falls back to element.Timeout and then to DefaultTimeout, as in WaitFor.
func RaceOutcome(ctx context.Context, sub *Subscription, element Condition, timeout time.Duration) (Outcome, error) {
	start := time.Now()

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		observedMu sync.Mutex
		observedAt time.Time
	)
	predicate := element.Predicate
	if timeout > 0 {
		element.Timeout = timeout
	}
	element.Predicate = func(ctx context.Context) (bool, error) {
		ok, err := predicate(ctx)
		if err == nil && ok {
			observedMu.Lock()
			observedAt = time.Now()
			observedMu.Unlock()
		}
		return ok, err
	}

	elemCh := make(chan elementResult, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := WaitFor(raceCtx, element)
		observedMu.Lock()
		at := observedAt
		observedMu.Unlock()
		elemCh <- elementResult{err: err, at: at}
	}()

	stopElement := func() *elementResult {
		cancel()
		wg.Wait()
		select {
		case r := <-elemCh:
			return &r
		default:
			return nil
		}
	}

	select {
	case <-sub.Done():
		r := stopElement()
		evt, ok := sub.Event()
		if !ok {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			return Outcome{}, ErrSubscriptionCancelled
		}
		if r != nil && r.err == nil {
			return settleBoth(sub.bridge.logger, r.at, evt), nil
		}
		return Outcome{Kind: DialogWon, Dialog: evt, SettledAt: evt.ReceivedAt}, nil

	case r := <-elemCh:
		wg.Wait()
		if r.err != nil {
			if ctx.Err() != nil {
				sub.Cancel()
				return Outcome{}, ctx.Err()
			}
			if sub.Cancel() {
				return Outcome{}, &RaceTimeoutError{Elapsed: time.Since(start), Element: r.err}
			}
			// A dialog was claimed right at the deadline.
			<-sub.Done()
			evt, _ := sub.Event()
			return Outcome{Kind: DialogWon, Dialog: evt, SettledAt: evt.ReceivedAt}, nil
		}

		if sub.Cancel() {
			return Outcome{Kind: ElementWon, SettledAt: r.at}, nil
		}
		// The dialog was claimed between the element observation and the cancellation.
		<-sub.Done()
		evt, _ := sub.Event()
		return settleBoth(sub.bridge.logger, r.at, evt), nil
	}
}

// settleBoth decides a race in which the element was observed at elementAt and evt was claimed too.
// The earlier one wins. A dialog that lost has still been resolved, so it is reported as LateDialog.
func settleBoth(logger *slog.Logger, elementAt time.Time, evt DialogEvent) Outcome {
	if !elementAt.Before(evt.ReceivedAt) {
		return Outcome{Kind: DialogWon, Dialog: evt, SettledAt: evt.ReceivedAt}
	}
	logger.Warn("Dialog claimed after element settled, it is not available to later waits",
		slog.String("message", evt.Message),
		slog.String("resolution", evt.Resolution.String()),
		slog.Duration("after", evt.ReceivedAt.Sub(elementAt)),
	)
	return Outcome{Kind: ElementWon, SettledAt: elementAt, LateDialog: &evt}
}

// LogValue makes outcomes readable in structured logs.
func (o Outcome) LogValue() slog.Value {
	if o.LateDialog != nil {
		return slog.GroupValue(slog.String("winner", o.Kind.String()), slog.String("lateDialog", o.LateDialog.Message))
	}
	if o.Kind == DialogWon {
		return slog.GroupValue(slog.String("winner", o.Kind.String()), slog.String("message", o.Dialog.Message))
	}
	return slog.GroupValue(slog.String("winner", o.Kind.String()))
}

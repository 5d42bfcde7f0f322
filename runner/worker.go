package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"

	"github.com/networkteam/storefront-e2e/fixture"
)

// BodyOverrunWarning marks results whose body was still running when the worker moved on.
const BodyOverrunWarning = "test body did not return after teardown and may overlap with the next test"

// worker runs tests sequentially with its own fixture container.
type worker struct {
	index     int
	key       uuid.UUID
	container *fixture.Container
	capture   *CaptureHandler
	logger    *slog.Logger
	reporter  Reporter
	opts      Options
}

func newWorker(index int, registry *fixture.Registry, reporter Reporter, opts Options) (*worker, error) {
	key, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating worker key: %w", err)
	}

	capture := NewCaptureHandler(opts.Logger.Handler(), slog.LevelDebug)
	logger := slog.New(capture).With(slog.Int("worker", index))

	container, err := fixture.NewContainer(registry, fixture.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &worker{
		index:     index,
		key:       key,
		container: container,
		capture:   capture,
		logger:    logger,
		reporter:  reporter,
		opts:      opts,
	}, nil
}

func (w *worker) run(ctx context.Context, test Test) Result {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.Must(uuid.NewV4())
	}

	buffer := NewLogBuffer(w.opts.LogCapacity)
	stopCapture := w.capture.Capture(buffer)
	defer stopCapture()

	info := &TestInfo{
		ID:     id,
		Test:   test,
		Worker: w.index,
		Logger: w.logger.With(slog.String("test", test.FullName())),
	}
	res := Result{
		ID:       id,
		Name:     test.Name,
		FullName: test.FullName(),
		Tags:     test.Tags,
		Worker:   w.index,
		Start:    time.Now(),
	}
	w.reporter.TestStarted(info)

	timeout := test.Timeout
	if timeout <= 0 {
		timeout = w.opts.TestTimeout
	}
	testCtx, cancel := context.WithTimeout(WithTestInfo(ctx, info), timeout)
	defer cancel()

	keys := fixture.ScopeKeys{Worker: w.key, Test: id}

	var (
		t        *T
		bodyDone <-chan struct{}
	)
	values, err := w.container.Resolve(testCtx, lo.Uniq(test.Fixtures), keys)
	if err != nil {
		res.Status = StatusFailed
		res.Phase = PhaseSetup
		res.Failures = []string{err.Error()}
		var constructionErr *fixture.FixtureConstructionError
		if errors.As(err, &constructionErr) {
			res.Fixture = constructionErr.Name
		}
		info.setStatus(StatusFailed)
		info.Logger.Error("Test setup failed", slog.Any("error", err))
	} else {
		t = newT(testCtx, info, values)
		bodyDone = w.runBody(testCtx, t, test, timeout)
		info.setStatus(t.status())
	}

	// Teardown gets its own deadline, the test context may already be expired
	teardownCtx, teardownCancel := context.WithTimeout(WithTestInfo(context.WithoutCancel(ctx), info), w.opts.TeardownTimeout)
	defer teardownCancel()
	if err := w.container.TeardownScope(teardownCtx, id); err != nil {
		res.Warnings = teardownWarnings(err)
		info.Logger.Warn("Test teardown failed", slog.Any("error", err))
	}

	if t != nil {
		select {
		case <-bodyDone:
		case <-time.After(w.opts.TeardownTimeout):
			// The body ignores its context and keeps running next to the worker's following tests.
			info.Logger.Error("Test body still running after teardown", slog.Int("worker", w.index))
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s (worker %d)", BodyOverrunWarning, w.index))
		}
		t.fill(&res)
	}

	res.Duration = time.Since(res.Start)
	res.Logs = buffer.Entries()
	return res
}

// runBody runs the body in its own goroutine so a timeout can end the test while a browser call is pending.
// The returned channel is closed when the body returned.
func (w *worker) runBody(ctx context.Context, t *T, test Test, timeout time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(abort); ok {
					return
				}
				t.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
		}()
		test.Body(t)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.Errorf("test timed out after %s", timeout)
		} else {
			t.Errorf("test cancelled: %v", ctx.Err())
		}
	}
	return done
}

func (w *worker) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.opts.TeardownTimeout)
	defer cancel()
	return w.container.Close(ctx)
}

func (t *T) status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.failed:
		return StatusFailed
	case t.skipped:
		return StatusSkipped
	default:
		return StatusPassed
	}
}

func (t *T) fill(res *Result) {
	res.Status = t.status()

	t.mu.Lock()
	defer t.mu.Unlock()
	res.Steps = append([]StepResult(nil), t.steps...)
	res.Failures = append([]string(nil), t.failures...)
	switch res.Status {
	case StatusFailed:
		res.Phase = PhaseBody
		res.Step = t.failedStep
		if len(res.Failures) == 0 {
			res.Failures = []string{"test failed with no failure message"}
		}
	case StatusSkipped:
		res.SkipReason = t.skipReason
	}
}

func teardownWarnings(err error) []string {
	var teardownErr *fixture.TeardownError
	if errors.As(err, &teardownErr) {
		return lo.Map(teardownErr.Failures, func(f fixture.TeardownFailure, _ int) string {
			return fmt.Sprintf("teardown of fixture %q: %v", f.Name, f.Err)
		})
	}
	return []string{err.Error()}
}

package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/networkteam/storefront-e2e/fixture"
)

// T is handed to test bodies. It implements require.TestingT, so testify assertions work with it.
type T struct {
	ctx    context.Context
	info   *TestInfo
	values fixture.Values
	logger *slog.Logger

	mu         sync.Mutex
	failed     bool
	skipped    bool
	skipReason string
	failures   []string
	steps      []StepResult
	step       string
	failedStep string
}

// abort is panicked by FailNow and SkipNow and recovered by the worker.
type abort struct{}

func newT(ctx context.Context, info *TestInfo, values fixture.Values) *T {
	return &T{
		ctx:    ctx,
		info:   info,
		values: values,
		logger: info.Logger,
	}
}

// Context is cancelled when the test times out.
func (t *T) Context() context.Context {
	return t.ctx
}

// Name returns the full test name.
func (t *T) Name() string {
	return t.info.Test.FullName()
}

// Info returns the test info.
func (t *T) Info() *TestInfo {
	return t.info
}

// Logger returns the logger whose records are captured for this test.
func (t *T) Logger() *slog.Logger {
	return t.logger
}

// Helper is a no-op; it lets testify treat T as a helper-aware TestingT.
func (t *T) Helper() {}

// Logf logs an info message for the test.
func (t *T) Logf(format string, args ...any) {
	t.logger.Info(fmt.Sprintf(format, args...))
}

// Errorf records a failure and continues.
func (t *T) Errorf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))

	t.mu.Lock()
	t.failed = true
	t.failures = append(t.failures, msg)
	if t.failedStep == "" {
		t.failedStep = t.step
	}
	t.mu.Unlock()

	t.logger.Error("Test failure", slog.String("failure", msg))
}

// FailNow ends the test.
func (t *T) FailNow() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
	panic(abort{})
}

// Fatalf records a failure and ends the test.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

// NoError ends the test if err is not nil.
func (t *T) NoError(err error, msgAndArgs ...any) {
	if err == nil {
		return
	}
	if len(msgAndArgs) > 0 {
		if format, ok := msgAndArgs[0].(string); ok {
			t.Fatalf("%s: %v", fmt.Sprintf(format, msgAndArgs[1:]...), err)
		}
	}
	t.Fatalf("%v", err)
}

// Skipf marks the test as skipped and ends it.
func (t *T) Skipf(format string, args ...any) {
	t.mu.Lock()
	t.skipped = true
	t.skipReason = fmt.Sprintf(format, args...)
	t.mu.Unlock()
	panic(abort{})
}

// Failed reports whether a failure was recorded.
func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// Step runs fn as a named step. A failure inside the step is attributed to it and ends the test.
func (t *T) Step(name string, fn func()) {
	t.mu.Lock()
	parent := t.step
	if parent != "" {
		name = parent + " > " + name
	}
	t.step = name
	failuresBefore := len(t.failures)
	t.mu.Unlock()

	t.logger.Debug("Step started", slog.String("step", name))
	start := time.Now()

	finish := func(panicked bool) {
		t.mu.Lock()
		defer t.mu.Unlock()

		res := StepResult{Name: name, Status: StatusPassed, Duration: time.Since(start)}
		switch {
		case len(t.failures) > failuresBefore:
			res.Status = StatusFailed
			res.Error = t.failures[failuresBefore]
		case panicked && t.skipped:
			res.Status = StatusSkipped
		case panicked:
			res.Status = StatusFailed
		}
		if res.Status == StatusFailed && t.failedStep == "" {
			t.failedStep = name
		}
		t.steps = append(t.steps, res)
		t.step = parent
	}

	defer func() {
		if r := recover(); r != nil {
			finish(true)
			panic(r)
		}
	}()
	fn()
	finish(false)
}

// Fixture returns the value of a resolved fixture as V. It fails the test if the fixture was not
// resolved or has another type.
func Fixture[V any](t *T, name string) V {
	v, err := fixture.Get[V](t.values, name)
	if err != nil {
		t.Fatalf("fixture %q: %v (is it listed in the test's fixtures?)", name, err)
	}
	return v
}

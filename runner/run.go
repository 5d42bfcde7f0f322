package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ErrNoTests is returned by Run if the filter selected no test.
var ErrNoTests = errors.New("no tests selected")

const (
	DefaultTestTimeout     = 30 * time.Second
	DefaultTeardownTimeout = 10 * time.Second
)

// Options configure a run.
type Options struct {
	// Workers is the number of parallel workers. Defaults to 1.
	Workers int
	Filter  Filter
	// TestTimeout bounds tests that do not set their own timeout.
	TestTimeout time.Duration
	// TeardownTimeout bounds the teardown of a test scope and of a worker.
	TeardownTimeout time.Duration
	// LogCapacity is the number of log entries captured per test.
	LogCapacity int
	Logger      *slog.Logger
	Reporters   []Reporter
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.TestTimeout <= 0 {
		o.TestTimeout = DefaultTestTimeout
	}
	if o.TeardownTimeout <= 0 {
		o.TeardownTimeout = DefaultTeardownTimeout
	}
	if o.LogCapacity <= 0 {
		o.LogCapacity = DefaultLogCapacity
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Run executes the tests of the suite selected by the filter.
//
// Tests are distributed round-robin over the workers. Each worker owns a fixture container and runs its
// tests sequentially; worker fixtures are torn down when the worker has no more tests. Results are
// returned in registration order. Test failures are reported in the results, not as error.
func Run(ctx context.Context, suite *Suite, opts Options) (Results, error) {
	opts = opts.withDefaults()

	if err := suite.registry.Seal(); err != nil {
		return nil, err
	}

	selected := lo.Filter(suite.tests, func(test Test, _ int) bool {
		return opts.Filter.Match(test)
	})
	if len(selected) == 0 {
		return nil, ErrNoTests
	}

	workers := min(opts.Workers, len(selected))
	buckets := make([][]int, workers)
	for i := range selected {
		buckets[i%workers] = append(buckets[i%workers], i)
	}

	reporter := newSyncReporter(opts.Reporters)
	reporter.RunStarted(len(selected), workers)
	start := time.Now()

	results := make(Results, len(selected))
	g, gCtx := errgroup.WithContext(ctx)
	for i, bucket := range buckets {
		g.Go(func() error {
			w, err := newWorker(i+1, suite.registry, reporter, opts)
			if err != nil {
				return err
			}
			w.logger.Debug("Worker started", slog.Int("tests", len(bucket)))

			for _, idx := range bucket {
				test := selected[idx]
				if gCtx.Err() != nil {
					results[idx] = skippedResult(test, i+1, "run cancelled")
					reporter.TestFinished(results[idx])
					continue
				}
				results[idx] = w.run(gCtx, test)
				reporter.TestFinished(results[idx])
			}

			if err := w.close(context.WithoutCancel(gCtx)); err != nil {
				w.logger.Warn("Worker teardown failed", slog.Any("error", err))
			}
			return nil
		})
	}
	err := g.Wait()

	if reportErr := reporter.RunFinished(results, time.Since(start)); reportErr != nil {
		err = errors.Join(err, reportErr)
	}
	return results, err
}

func skippedResult(test Test, worker int, reason string) Result {
	return Result{
		Name:       test.Name,
		FullName:   test.FullName(),
		Tags:       test.Tags,
		Worker:     worker,
		Status:     StatusSkipped,
		SkipReason: reason,
		Start:      time.Now(),
	}
}

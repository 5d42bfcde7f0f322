// Package e2e assembles the storefront end-to-end suite: configuration, fixtures, scenarios and reporters.
package e2e

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/report"
	"github.com/networkteam/storefront-e2e/runner"
	"github.com/networkteam/storefront-e2e/scenarios"
	"github.com/networkteam/storefront-e2e/storefront"
)

// Options configure a suite instance.
type Options struct {
	// Config is the validated configuration.
	// Default: config.Default()
	Config *config.Config
	// Filter selects the tests to run.
	// Default: all tests
	Filter runner.Filter
	// Logger receives framework and test logs.
	// Default: slog.Default()
	Logger *slog.Logger
	// Out receives the console report.
	// Default: os.Stdout
	Out io.Writer
	// ReportDir is where results.json and index.html are written. Empty disables file reports.
	// Default: ""
	ReportDir string
	// Verbose prints started tests and steps.
	Verbose bool
}

// Instance is a ready to run suite.
type Instance struct {
	suite   *runner.Suite
	options Options
	cfg     config.Config
}

// New creates a suite with default options.
func New() (*Instance, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions registers the fixtures and all scenarios.
func NewWithOptions(options Options) (*Instance, error) {
	cfg := config.Default()
	if options.Config != nil {
		cfg = *options.Config
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}

	suite := runner.NewSuite()
	if err := storefront.Register(suite.Registry(), cfg); err != nil {
		return nil, err
	}
	if err := scenarios.Register(suite); err != nil {
		return nil, err
	}

	return &Instance{suite: suite, options: options, cfg: cfg}, nil
}

// Tests returns the tests selected by the filter.
func (i *Instance) Tests() []runner.Test {
	return lo.Filter(i.suite.Tests(), func(test runner.Test, _ int) bool {
		return i.options.Filter.Match(test)
	})
}

// Run executes the selected tests and writes the reports.
func (i *Instance) Run(ctx context.Context) (runner.Results, error) {
	reporters := []runner.Reporter{
		runner.NewConsoleReporter(i.options.Out, true, i.options.Verbose),
	}
	if i.options.ReportDir != "" {
		reporters = append(reporters,
			report.NewJSONReporter(filepath.Join(i.options.ReportDir, "results.json")),
			report.NewHTMLReporter(filepath.Join(i.options.ReportDir, "index.html")),
		)
	}

	i.options.Logger.Debug("Starting run", slog.Any("config", i.cfg), slog.String("filter", i.options.Filter.Describe()))

	return runner.Run(ctx, i.suite, runner.Options{
		Workers:     i.cfg.Workers,
		Filter:      i.options.Filter,
		TestTimeout: i.cfg.Timeouts.Test,
		Logger:      i.options.Logger,
		Reporters:   reporters,
	})
}

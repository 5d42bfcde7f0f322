package runner

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Reporter receives progress of a run. Calls are serialized by the runner.
type Reporter interface {
	RunStarted(total, workers int)
	TestStarted(info *TestInfo)
	TestFinished(result Result)
	RunFinished(results Results, elapsed time.Duration) error
}

type syncReporter struct {
	mu        sync.Mutex
	reporters []Reporter
}

func newSyncReporter(reporters []Reporter) *syncReporter {
	return &syncReporter{reporters: reporters}
}

func (r *syncReporter) RunStarted(total, workers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reporters {
		rep.RunStarted(total, workers)
	}
}

func (r *syncReporter) TestStarted(info *TestInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reporters {
		rep.TestStarted(info)
	}
}

func (r *syncReporter) TestFinished(result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reporters {
		rep.TestFinished(result)
	}
}

func (r *syncReporter) RunFinished(results Results, elapsed time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, rep := range r.reporters {
		if err := rep.RunFinished(results, elapsed); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConsoleReporter prints results as they finish.
type ConsoleReporter struct {
	Out io.Writer
	// LogsOnFailure dumps the captured logs of failed tests.
	LogsOnFailure bool
	// Verbose prints started tests and steps.
	Verbose bool

	passed  *color.Color
	failed  *color.Color
	skipped *color.Color
	dim     *color.Color
}

// NewConsoleReporter creates a console reporter writing to out.
func NewConsoleReporter(out io.Writer, logsOnFailure, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{
		Out:           out,
		LogsOnFailure: logsOnFailure,
		Verbose:       verbose,
		passed:        color.New(color.FgGreen),
		failed:        color.New(color.FgRed, color.Bold),
		skipped:       color.New(color.FgYellow),
		dim:           color.New(color.Faint),
	}
}

func (c *ConsoleReporter) RunStarted(total, workers int) {
	fmt.Fprintf(c.Out, "Running %d tests using %d workers\n\n", total, workers)
}

func (c *ConsoleReporter) TestStarted(info *TestInfo) {
	if c.Verbose {
		c.dim.Fprintf(c.Out, "  [w%d] %s\n", info.Worker, info.Test.FullName())
	}
}

func (c *ConsoleReporter) TestFinished(result Result) {
	duration := c.dim.Sprintf("(%s)", result.Duration.Round(time.Millisecond))
	switch result.Status {
	case StatusPassed:
		fmt.Fprintf(c.Out, "  %s %s %s\n", c.passed.Sprint("✓"), result.FullName, duration)
	case StatusSkipped:
		fmt.Fprintf(c.Out, "  %s %s %s\n", c.skipped.Sprint("-"), result.FullName, c.dim.Sprintf("(%s)", result.SkipReason))
	case StatusFailed:
		fmt.Fprintf(c.Out, "  %s %s %s\n", c.failed.Sprint("✘"), result.FullName, duration)
		c.printFailure(result)
	}

	if c.Verbose {
		for _, step := range result.Steps {
			fmt.Fprintf(c.Out, "      %s %s\n", c.statusMark(step.Status), step.Name)
		}
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(c.Out, "      %s %s\n", c.skipped.Sprintf("%s warning:", PhaseTeardown), warning)
	}
}

func (c *ConsoleReporter) printFailure(result Result) {
	where := []string{"in " + result.Phase.String()}
	if result.Fixture != "" {
		where = append(where, fmt.Sprintf("fixture %q", result.Fixture))
	}
	if result.Step != "" {
		where = append(where, fmt.Sprintf("step %q", result.Step))
	}
	c.failed.Fprintf(c.Out, "      failed %s\n", strings.Join(where, ", "))
	for _, failure := range result.Failures {
		for _, line := range strings.Split(failure, "\n") {
			fmt.Fprintf(c.Out, "      %s\n", line)
		}
	}
	if c.LogsOnFailure && len(result.Logs) > 0 {
		c.dim.Fprintln(c.Out, "      captured logs:")
		for _, entry := range result.Logs {
			c.dim.Fprintf(c.Out, "        %s\n", entry)
		}
	}
}

func (c *ConsoleReporter) statusMark(s Status) string {
	switch s {
	case StatusPassed:
		return c.passed.Sprint("✓")
	case StatusFailed:
		return c.failed.Sprint("✘")
	default:
		return c.skipped.Sprint("-")
	}
}

func (c *ConsoleReporter) RunFinished(results Results, elapsed time.Duration) error {
	fmt.Fprintln(c.Out)
	summary := fmt.Sprintf("%d passed, %d failed, %d skipped in %s",
		results.Count(StatusPassed),
		results.Count(StatusFailed),
		results.Count(StatusSkipped),
		elapsed.Round(time.Millisecond),
	)
	if results.OK() {
		c.passed.Fprintln(c.Out, summary)
		return nil
	}
	c.failed.Fprintln(c.Out, summary)
	for _, res := range results.Failed() {
		fmt.Fprintf(c.Out, "  %s %s\n", c.failed.Sprint("✘"), res.FullName)
	}
	return nil
}

// Package report writes run results to files: a JSON document for tooling and a static HTML page for people.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/networkteam/storefront-e2e/runner"
)

// Report is a finished run.
type Report struct {
	RunID    uuid.UUID      `json:"runId"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
	Workers  int            `json:"workers"`
	Summary  Summary        `json:"summary"`
	Results  runner.Results `json:"results"`
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Summarize counts results by status.
func Summarize(results runner.Results) Summary {
	return Summary{
		Total:   len(results),
		Passed:  results.Count(runner.StatusPassed),
		Failed:  results.Count(runner.StatusFailed),
		Skipped: results.Count(runner.StatusSkipped),
	}
}

// run tracks the run metadata reporters need before results are available.
type run struct {
	mu      sync.Mutex
	id      uuid.UUID
	started time.Time
	workers int
}

func (r *run) RunStarted(total, workers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = uuid.Must(uuid.NewV7())
	r.started = time.Now()
	r.workers = workers
}

func (r *run) TestStarted(info *runner.TestInfo) {}

func (r *run) TestFinished(result runner.Result) {}

func (r *run) report(results runner.Results, elapsed time.Duration) Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Report{
		RunID:    r.id,
		Started:  r.started,
		Duration: elapsed,
		Workers:  r.workers,
		Summary:  Summarize(results),
		Results:  results,
	}
}

// writeFile creates the parent directory of path and writes data to it.
func writeFile(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

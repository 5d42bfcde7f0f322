//go:build acceptance
// +build acceptance

package acceptance

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	e2e "github.com/networkteam/storefront-e2e"
	"github.com/networkteam/storefront-e2e/browser"
	"github.com/networkteam/storefront-e2e/config"
	"github.com/networkteam/storefront-e2e/runner"
)

// TestMain installs the Playwright driver and Chromium before running tests.
func TestMain(m *testing.M) {
	if err := browser.Install(); err != nil {
		log.Fatalf("could not install playwright: %v", err)
	}
	os.Exit(m.Run())
}

// runSuite runs the tests selected by filter against the storefront configured in the environment.
// Set HEADLESS=false to watch the browser.
func runSuite(t *testing.T, filter runner.Filter) runner.Results {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)

	instance, err := e2e.NewWithOptions(e2e.Options{
		Config:    &cfg,
		Filter:    filter,
		Out:       testWriter{t},
		ReportDir: t.TempDir(),
		Verbose:   testing.Verbose(),
	})
	require.NoError(t, err)

	results, err := instance.Run(context.Background())
	require.NoError(t, err)
	return results
}

func requireOK(t *testing.T, results runner.Results) {
	t.Helper()

	for _, res := range results.Failed() {
		t.Errorf("%s failed in %s %s: %s", res.FullName, res.Phase, res.Step, res.Error())
	}
}

func TestPriority1(t *testing.T) {
	results := runSuite(t, runner.Filter{Tags: []string{"@priority1"}})

	assert.Len(t, results, 3)
	requireOK(t, results)
}

func TestCartScenarios(t *testing.T) {
	results := runSuite(t, runner.Filter{Tags: []string{"@priority3"}})

	requireOK(t, results)
}

func TestValidationScenarios(t *testing.T) {
	results := runSuite(t, runner.Filter{Tags: []string{"@priority4"}})

	require.Len(t, results, 1)
	requireOK(t, results)
}

func TestReportFiles(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	dir := t.TempDir()
	instance, err := e2e.NewWithOptions(e2e.Options{
		Config:    &cfg,
		Filter:    runner.Filter{Run: runner.MustRegexList("Page Load")},
		Out:       testWriter{t},
		ReportDir: dir,
	})
	require.NoError(t, err)

	_, err = instance.Run(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "results.json"))
	assert.FileExists(t, filepath.Join(dir, "index.html"))
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

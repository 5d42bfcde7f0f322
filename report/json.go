package report

import (
	"encoding/json"
	"os"
	"time"

	"github.com/networkteam/storefront-e2e/runner"
)

// JSONReporter writes the report as indented JSON when the run finishes.
type JSONReporter struct {
	run
	Path string
}

var _ runner.Reporter = (*JSONReporter)(nil)

func NewJSONReporter(path string) *JSONReporter {
	return &JSONReporter{Path: path}
}

func (j *JSONReporter) RunFinished(results runner.Results, elapsed time.Duration) error {
	rep := j.report(results, elapsed)
	return writeFile(j.Path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	})
}

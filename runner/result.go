package runner

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"
)

var errTestInfoMissing = errors.New("no test info in context")

// Status is the outcome of a test.
type Status int

const (
	StatusRunning Status = iota
	StatusPassed
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "running"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Phase is the part of a test that failed.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseSetup
	PhaseBody
	PhaseTeardown
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseBody:
		return "body"
	case PhaseTeardown:
		return "teardown"
	default:
		return ""
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// StepResult is a named step of a test body.
type StepResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result is the outcome of a single test.
type Result struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	FullName string    `json:"fullName"`
	Tags     []string  `json:"tags,omitempty"`
	Worker   int       `json:"worker"`

	Status Status `json:"status"`
	// Phase, Fixture and Step locate a failure.
	Phase   Phase  `json:"phase,omitempty"`
	Fixture string `json:"fixture,omitempty"`
	Step    string `json:"step,omitempty"`
	// Failures are all recorded failure messages in order.
	Failures   []string `json:"failures,omitempty"`
	SkipReason string   `json:"skipReason,omitempty"`
	// Warnings are teardown failures. They never change Status.
	Warnings []string `json:"warnings,omitempty"`

	Steps    []StepResult  `json:"steps,omitempty"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Logs     []LogEntry    `json:"logs,omitempty"`
}

// Error returns the first failure message.
func (r Result) Error() string {
	if len(r.Failures) == 0 {
		return ""
	}
	return r.Failures[0]
}

// Results of a run in registration order.
type Results []Result

// Count returns the number of results with the given status.
func (r Results) Count(status Status) int {
	return lo.CountBy(r, func(res Result) bool {
		return res.Status == status
	})
}

// Failed returns the failed results.
func (r Results) Failed() Results {
	return lo.Filter(r, func(res Result, _ int) bool {
		return res.Status == StatusFailed
	})
}

// OK reports whether no test failed.
func (r Results) OK() bool {
	return r.Count(StatusFailed) == 0
}

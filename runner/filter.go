package runner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Filter selects the tests of a run.
type Filter struct {
	// Run selects tests whose full name matches any pattern. Empty selects all.
	Run RegexList
	// Skip excludes tests whose full name matches any pattern.
	Skip RegexList
	// Tags selects tests carrying any of the tags. Empty selects all.
	Tags []string
}

// Match reports whether the test should run.
func (f Filter) Match(test Test) bool {
	name := test.FullName()
	if f.Run.IsDefined() && !f.Run.AnyMatch(name) {
		return false
	}
	if f.Skip.AnyMatch(name) {
		return false
	}
	if len(f.Tags) > 0 && !lo.SomeBy(f.Tags, test.HasTag) {
		return false
	}
	return true
}

// Describe returns a human readable description, empty if the filter selects everything.
func (f Filter) Describe() string {
	var parts []string
	if f.Run.IsDefined() {
		parts = append(parts, "matching "+f.Run.String())
	}
	if f.Skip.IsDefined() {
		parts = append(parts, "not matching "+f.Skip.String())
	}
	if len(f.Tags) > 0 {
		parts = append(parts, "tagged "+strings.Join(f.Tags, " or "))
	}
	return strings.Join(parts, ", ")
}

// RegexList is a list of patterns usable as a repeatable command line flag.
type RegexList struct {
	patterns []*regexp.Regexp
}

// MustRegexList compiles patterns and panics on error.
func MustRegexList(patterns ...string) RegexList {
	var r RegexList
	for _, p := range patterns {
		if err := r.Set(p); err != nil {
			panic(err)
		}
	}
	return r
}

func (r RegexList) String() string {
	ss := lo.Map(r.patterns, func(p *regexp.Regexp, _ int) string {
		return `"` + p.String() + `"`
	})
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

// Type names the flag value type in usage output.
func (r *RegexList) Type() string {
	return "regex"
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	return lo.SomeBy(r.patterns, func(p *regexp.Regexp) bool {
		return p.MatchString(s)
	})
}

package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/runner"
)

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	login := runner.Test{Group: "User Management", Name: "User Login", Tags: []string{"@all", "@priority2"}}
	signup := runner.Test{Group: "User Management", Name: "User Registration", Tags: []string{"@all"}}
	cart := runner.Test{Group: "Cart", Name: "Remove Product from Cart", Tags: []string{"@all", "@priority3"}}

	tests := []struct {
		name   string
		filter runner.Filter
		want   []bool
	}{
		{
			name:   "empty filter selects all",
			filter: runner.Filter{},
			want:   []bool{true, true, true},
		},
		{
			name:   "run pattern",
			filter: runner.Filter{Run: runner.MustRegexList("User Management")},
			want:   []bool{true, true, false},
		},
		{
			name:   "skip pattern",
			filter: runner.Filter{Skip: runner.MustRegexList("Registration", "^Cart")},
			want:   []bool{true, false, false},
		},
		{
			name:   "tags",
			filter: runner.Filter{Tags: []string{"@priority2", "@priority3"}},
			want:   []bool{true, false, true},
		},
		{
			name:   "run and tags combined",
			filter: runner.Filter{Run: runner.MustRegexList("Login|Cart"), Tags: []string{"@priority3"}},
			want:   []bool{false, false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := []bool{tt.filter.Match(login), tt.filter.Match(signup), tt.filter.Match(cart)}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegexList_Set(t *testing.T) {
	t.Parallel()

	var list runner.RegexList
	require.NoError(t, list.Set("Cart$"))
	assert.Error(t, list.Set("(unclosed"))
	assert.True(t, list.IsDefined())
	assert.Equal(t, `"Cart$"`, list.String())
	assert.Equal(t, "regex", list.Type())
}

func TestFilter_Describe(t *testing.T) {
	t.Parallel()

	assert.Empty(t, runner.Filter{}.Describe())
	f := runner.Filter{Run: runner.MustRegexList("Login"), Tags: []string{"@priority1"}}
	assert.Equal(t, `matching "Login", tagged @priority1`, f.Describe())
}

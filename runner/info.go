package runner

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/networkteam/storefront-e2e/fixture"
)

// FixtureTestInfo is the name of the test-scoped fixture holding the current *TestInfo.
const FixtureTestInfo = "testInfo"

// TestInfo describes the running test to fixtures. Its status is final before test fixtures are torn down.
type TestInfo struct {
	ID     uuid.UUID
	Test   Test
	Worker int
	Logger *slog.Logger

	mu     sync.RWMutex
	status Status
}

// Status returns the status of the test body, StatusRunning while it executes.
func (i *TestInfo) Status() Status {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// Failed reports whether the body did not pass. Skipped tests did not fail.
func (i *TestInfo) Failed() bool {
	return i.Status() == StatusFailed
}

func (i *TestInfo) setStatus(s Status) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = s
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// OutputDir returns a directory below base for artifacts of this test.
func (i *TestInfo) OutputDir(base string) string {
	slug := strings.Trim(unsafePathChars.ReplaceAllString(strings.ToLower(i.Test.FullName()), "-"), "-")
	return filepath.Join(base, slug+"-"+i.ID.String()[:8])
}

type testInfoKey struct{}

// WithTestInfo returns a context carrying info.
func WithTestInfo(ctx context.Context, info *TestInfo) context.Context {
	return context.WithValue(ctx, testInfoKey{}, info)
}

// TestInfoFromContext returns the test info of ctx, if any.
func TestInfoFromContext(ctx context.Context) (*TestInfo, bool) {
	info, ok := ctx.Value(testInfoKey{}).(*TestInfo)
	return info, ok
}

func registerFixtures(reg *fixture.Registry) {
	reg.MustDefine(FixtureTestInfo, fixture.ScopeTest, nil, func(ctx context.Context, deps fixture.Values) (any, fixture.Teardown, error) {
		info, ok := TestInfoFromContext(ctx)
		if !ok {
			return nil, nil, errTestInfoMissing
		}
		return info, nil, nil
	})
}

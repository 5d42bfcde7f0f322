package fixture_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/storefront-e2e/fixture"
)

// lifecycle records constructions and teardowns across fixtures.
type lifecycle struct {
	mu     sync.Mutex
	events []string
}

func (l *lifecycle) record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *lifecycle) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *lifecycle) count(event string) int {
	n := 0
	for _, e := range l.snapshot() {
		if e == event {
			n++
		}
	}
	return n
}

// tracked returns a factory that records "+name" on construction and "-name" on teardown.
func (l *lifecycle) tracked(name string) fixture.Factory {
	return func(ctx context.Context, deps fixture.Values) (any, fixture.Teardown, error) {
		l.record("+" + name)
		return name, func(ctx context.Context) error {
			l.record("-" + name)
			return nil
		}, nil
	}
}

func newKeys(t *testing.T) fixture.ScopeKeys {
	t.Helper()
	return fixture.ScopeKeys{Worker: uuid.Must(uuid.NewV7()), Test: uuid.Must(uuid.NewV7())}
}

func newContainer(t *testing.T, reg *fixture.Registry) *fixture.Container {
	t.Helper()
	c, err := fixture.NewContainer(reg)
	require.NoError(t, err)
	return c
}

func TestContainer_ResolvesDiamondOnce(t *testing.T) {
	t.Parallel()

	l := &lifecycle{}
	reg := fixture.NewRegistry()
	reg.MustDefine("config", fixture.ScopeWorker, nil, l.tracked("config"))
	reg.MustDefine("left", fixture.ScopeTest, []string{"config"}, l.tracked("left"))
	reg.MustDefine("right", fixture.ScopeTest, []string{"config"}, l.tracked("right"))
	reg.MustDefine("top", fixture.ScopeTest, []string{"left", "right"}, func(ctx context.Context, deps fixture.Values) (any, fixture.Teardown, error) {
		left := fixture.MustGet[string](deps, "left")
		right := fixture.MustGet[string](deps, "right")
		return left + "+" + right, nil, nil
	})

	c := newContainer(t, reg)
	keys := newKeys(t)

	values, err := c.Resolve(context.Background(), []string{"top", "left"}, keys)
	require.NoError(t, err)

	top, err := fixture.Get[string](values, "top")
	require.NoError(t, err)
	assert.Equal(t, "left+right", top)
	assert.Equal(t, []string{"+config", "+left", "+right"}, l.snapshot())

	// A second resolution with the same keys is served from the cache
	_, err = c.Resolve(context.Background(), []string{"top"}, keys)
	require.NoError(t, err)
	assert.Equal(t, 1, l.count("+config"))
	assert.Equal(t, 1, l.count("+left"))
}

func TestContainer_OrderTiesByRegistration(t *testing.T) {
	t.Parallel()

	l := &lifecycle{}
	reg := fixture.NewRegistry()
	// Dependents registered before their dependencies
	reg.MustDefine("c", fixture.ScopeTest, []string{"b"}, l.tracked("c"))
	reg.MustDefine("z", fixture.ScopeTest, nil, l.tracked("z"))
	reg.MustDefine("b", fixture.ScopeTest, nil, l.tracked("b"))
	reg.MustDefine("a", fixture.ScopeTest, nil, l.tracked("a"))

	c := newContainer(t, reg)
	_, err := c.Resolve(context.Background(), []string{"a", "c", "z"}, newKeys(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"+z", "+b", "+c", "+a"}, l.snapshot())
}

func TestContainer_TeardownInReverseOrder(t *testing.T) {
	t.Parallel()

	l := &lifecycle{}
	reg := fixture.NewRegistry()
	reg.MustDefine("browserContext", fixture.ScopeTest, nil, l.tracked("browserContext"))
	reg.MustDefine("page", fixture.ScopeTest, []string{"browserContext"}, l.tracked("page"))
	reg.MustDefine("homePage", fixture.ScopeTest, []string{"page"}, l.tracked("homePage"))
	reg.MustDefine("cartPage", fixture.ScopeTest, []string{"page"}, l.tracked("cartPage"))

	c := newContainer(t, reg)
	keys := newKeys(t)
	_, err := c.Resolve(context.Background(), []string{"cartPage", "homePage"}, keys)
	require.NoError(t, err)

	created := c.Instances(keys.Test)
	require.Len(t, created, 4)

	require.NoError(t, c.TeardownScope(context.Background(), keys.Test))

	events := l.snapshot()
	constructed := events[:4]
	tornDown := events[4:]
	require.Len(t, tornDown, 4)
	for i := range constructed {
		assert.Equal(t, "-"+constructed[len(constructed)-1-i][1:], tornDown[i])
	}
	assert.Empty(t, c.Instances(keys.Test))
}

func TestContainer_AutoFixturesAlwaysResolved(t *testing.T) {
	t.Parallel()

	l := &lifecycle{}
	reg := fixture.NewRegistry()
	reg.MustDefine("page", fixture.ScopeTest, nil, l.tracked("page"))
	reg.MustDefine("session", fixture.ScopeTest, []string{"page"}, l.tracked("session"), fixture.Auto())
	reg.MustDefine("unused", fixture.ScopeTest, nil, l.tracked("unused"))

	c := newContainer(t, reg)
	values, err := c.Resolve(context.Background(), nil, newKeys(t))
	require.NoError(t, err)

	assert.Contains(t, values, "session")
	assert.Contains(t, values, "page")
	assert.NotContains(t, values, "unused")
	assert.Equal(t, []string{"+page", "+session"}, l.snapshot())
}

func TestContainer_UnknownRequestedFixture(t *testing.T) {
	t.Parallel()

	c := newContainer(t, fixture.NewRegistry())
	_, err := c.Resolve(context.Background(), []string{"nope"}, newKeys(t))

	var unknownErr *fixture.UnknownFixtureError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "nope", unknownErr.Name)
}

func TestContainer_ConstructionFailureTearsDownPartialSet(t *testing.T) {
	t.Parallel()

	l := &lifecycle{}
	errLaunch := errors.New("browser failed to start")

	reg := fixture.NewRegistry()
	reg.MustDefine("config", fixture.ScopeWorker, nil, l.tracked("config"))
	reg.MustDefine("browserContext", fixture.ScopeTest, []string{"config"}, l.tracked("browserContext"))
	reg.MustDefine("page", fixture.ScopeTest, []string{"browserContext"}, l.tracked("page"))
	reg.MustDefine("homePage", fixture.ScopeTest, []string{"page"}, func(ctx context.Context, deps fixture.Values) (any, fixture.Teardown, error) {
		return nil, nil, errLaunch
	})
	reg.MustDefine("cartPage", fixture.ScopeTest, []string{"homePage"}, l.tracked("cartPage"))

	c := newContainer(t, reg)
	keys := newKeys(t)
	_, err := c.Resolve(context.Background(), []string{"cartPage"}, keys)

	var constructionErr *fixture.FixtureConstructionError
	require.ErrorAs(t, err, &constructionErr)
	assert.Equal(t, "homePage", constructionErr.Name)
	assert.Equal(t, fixture.ScopeTest, constructionErr.Scope)
	assert.ErrorIs(t, err, errLaunch)
	assert.NoError(t, constructionErr.TeardownErr)

	assert.Equal(t, []string{"+config", "+browserContext", "+page", "-page", "-browserContext"}, l.snapshot())
	assert.Equal(t, 0, l.count("+cartPage"))
	assert.Empty(t, c.Instances(keys.Test))

	// Worker fixtures survive for the next test and are torn down exactly once
	next := newKeys(t)
	next.Worker = keys.Worker
	_, err = c.Resolve(context.Background(), []string{"browserContext"}, next)
	require.NoError(t, err)
	assert.Equal(t, 1, l.count("+config"))

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, l.count("-config"))
	assert.Equal(t, 1, l.count("-page"))
}

func TestContainer_PanicInFactoryIsConstructionError(t *testing.T) {
	t.Parallel()

	reg := fixture.NewRegistry()
	reg.MustDefine("page", fixture.ScopeTest, nil, func(ctx context.Context, deps fixture.Values) (any, fixture.Teardown, error) {
		panic("boom")
	})

	c := newContainer(t, reg)
	_, err := c.Resolve(context.Background(), []string{"page"}, newKeys(t))

	var constructionErr *fixture.FixtureConstructionError
	require.ErrorAs(t, err, &constructionErr)
	assert.Contains(t, err.Error(), "boom")
}

func TestContainer_TeardownContinuesPastFailures(t *testing.T) {
	t.Parallel()

	l := &lifecycle{}
	errLogout := errors.New("logout link detached")

	reg := fixture.NewRegistry()
	reg.MustDefine("page", fixture.ScopeTest, nil, l.tracked("page"))
	reg.MustDefine("session", fixture.ScopeTest, []string{"page"}, func(ctx context.Context, deps fixture.Values) (any, fixture.Teardown, error) {
		return "session", func(ctx context.Context) error {
			l.record("-session")
			return errLogout
		}, nil
	})
	reg.MustDefine("cartPage", fixture.ScopeTest, []string{"session"}, func(ctx context.Context, deps fixture.Values) (any, fixture.Teardown, error) {
		return "cartPage", func(ctx context.Context) error {
			l.record("-cartPage")
			panic("teardown panic")
		}, nil
	})

	c := newContainer(t, reg)
	keys := newKeys(t)
	_, err := c.Resolve(context.Background(), []string{"cartPage"}, keys)
	require.NoError(t, err)

	err = c.TeardownScope(context.Background(), keys.Test)

	var teardownErr *fixture.TeardownError
	require.ErrorAs(t, err, &teardownErr)
	assert.Equal(t, keys.Test, teardownErr.ScopeKey)
	require.Len(t, teardownErr.Failures, 2)
	assert.Equal(t, "cartPage", teardownErr.Failures[0].Name)
	assert.Equal(t, "session", teardownErr.Failures[1].Name)
	assert.ErrorIs(t, err, errLogout)

	assert.Equal(t, []string{"+page", "-cartPage", "-session", "-page"}, l.snapshot())

	// Torn down instances are gone; a second teardown does nothing
	assert.NoError(t, c.TeardownScope(context.Background(), keys.Test))
	assert.Equal(t, 1, l.count("-page"))
}

func TestContainer_MissingScopeKey(t *testing.T) {
	t.Parallel()

	reg := fixture.NewRegistry()
	reg.MustDefine("browser", fixture.ScopeWorker, nil, noop)

	c := newContainer(t, reg)
	_, err := c.Resolve(context.Background(), []string{"browser"}, fixture.ScopeKeys{Test: uuid.Must(uuid.NewV7())})

	var constructionErr *fixture.FixtureConstructionError
	require.ErrorAs(t, err, &constructionErr)
	assert.Equal(t, "browser", constructionErr.Name)
}

func TestContainer_NewContainerSealsRegistry(t *testing.T) {
	t.Parallel()

	reg := fixture.NewRegistry()
	reg.MustDefine("page", fixture.ScopeTest, []string{"missing"}, noop)

	_, err := fixture.NewContainer(reg)
	var unknownErr *fixture.UnknownFixtureError
	assert.ErrorAs(t, err, &unknownErr)

	reg = fixture.NewRegistry()
	reg.MustDefine("page", fixture.ScopeTest, nil, noop)
	_, err = fixture.NewContainer(reg)
	require.NoError(t, err)
	assert.ErrorIs(t, reg.Define("other", fixture.ScopeTest, nil, noop), fixture.ErrRegistrySealed)
}

// Two tests in one worker with a worker-scoped session and a test-scoped page depending on it.
func TestContainer_WorkerSessionAndTestPages(t *testing.T) {
	t.Parallel()

	l := &lifecycle{}
	reg := fixture.NewRegistry()
	reg.MustDefine("session", fixture.ScopeWorker, nil, l.tracked("session"))
	reg.MustDefine("page", fixture.ScopeTest, []string{"session"}, l.tracked("page"))

	c := newContainer(t, reg)
	worker := uuid.Must(uuid.NewV7())

	for i := 0; i < 2; i++ {
		keys := fixture.ScopeKeys{Worker: worker, Test: uuid.Must(uuid.NewV7())}
		values, err := c.Resolve(context.Background(), []string{"page"}, keys)
		require.NoError(t, err, fmt.Sprintf("test %d", i))
		assert.Equal(t, "page", values["page"])
		require.NoError(t, c.TeardownScope(context.Background(), keys.Test))
	}

	require.NoError(t, c.Close(context.Background()))

	assert.Equal(t, []string{
		"+session",
		"+page", "-page",
		"+page", "-page",
		"-session",
	}, l.snapshot())
}

func TestContainer_CloseTearsDownLatestScopeFirst(t *testing.T) {
	t.Parallel()

	l := &lifecycle{}
	reg := fixture.NewRegistry()
	reg.MustDefine("browser", fixture.ScopeWorker, nil, l.tracked("browser"))
	reg.MustDefine("page", fixture.ScopeTest, []string{"browser"}, l.tracked("page"))

	c := newContainer(t, reg)
	_, err := c.Resolve(context.Background(), []string{"page"}, newKeys(t))
	require.NoError(t, err)

	// The test scope was not torn down by the runner, Close cleans up anyway
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"+browser", "+page", "-page", "-browser"}, l.snapshot())
}

func TestValues_GetWrongType(t *testing.T) {
	t.Parallel()

	values := fixture.Values{"apiBaseURL": "https://api.demoblaze.com"}

	_, err := fixture.Get[int](values, "apiBaseURL")
	assert.Error(t, err)

	_, err = fixture.Get[string](values, "missing")
	var unknownErr *fixture.UnknownFixtureError
	assert.ErrorAs(t, err, &unknownErr)

	assert.Equal(t, "https://api.demoblaze.com", fixture.MustGet[string](values, "apiBaseURL"))
}

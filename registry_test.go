package xcqrs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passMiddleware struct{ id int }

func (passMiddleware) Handle(ctx context.Context, msg any, next Next) (any, error) {
	return next(ctx, msg)
}

// TestContainer_SingletonBuiltOnce checks singleton caching.
func TestContainer_SingletonBuiltOnce(t *testing.T) {
	c := NewContainer()
	built := 0
	require.NoError(t, c.Singleton("tx", func(context.Context) (BusMiddleware, error) {
		built++
		return &passMiddleware{id: built}, nil
	}))

	a, err := c.Resolve(context.Background(), "tx")
	require.NoError(t, err)
	b, err := c.Resolve(context.Background(), "tx")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, built)

	c.Forget("tx")
	_, err = c.Resolve(context.Background(), "tx")
	require.NoError(t, err)
	assert.Equal(t, 2, built)
}

// TestContainer_BindBuildsPerCall checks transient bindings.
func TestContainer_BindBuildsPerCall(t *testing.T) {
	c := NewContainer()
	built := 0
	require.NoError(t, c.Bind("audit", func(context.Context) (BusMiddleware, error) {
		built++
		return &passMiddleware{id: built}, nil
	}))

	a, _ := c.Resolve(context.Background(), "audit")
	b, _ := c.Resolve(context.Background(), "audit")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, built)
}

// TestContainer_RebindDropsInstance checks that re-registration replaces cached singletons.
func TestContainer_RebindDropsInstance(t *testing.T) {
	c := NewContainer()
	first, second := &passMiddleware{id: 1}, &passMiddleware{id: 2}
	require.NoError(t, c.Instance("m", first))
	got, _ := c.Resolve(context.Background(), "m")
	assert.Same(t, first, got)

	require.NoError(t, c.Instance("m", second))
	got, _ = c.Resolve(context.Background(), "m")
	assert.Same(t, second, got)

	c.Forget()
	got, _ = c.Resolve(context.Background(), "m")
	assert.Same(t, second, got)
}

// TestContainer_Errors checks unknown names, factory failures and invalid registrations.
func TestContainer_Errors(t *testing.T) {
	c := NewContainer()

	_, err := c.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiddlewareNotFound)
	assert.EqualError(t, err, `xcqrs: middleware "nope" not found`)

	boom := errors.New("no db")
	require.NoError(t, c.Singleton("tx", func(context.Context) (BusMiddleware, error) { return nil, boom }))
	_, err = c.Resolve(context.Background(), "tx")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, `resolve middleware "tx"`)

	require.NoError(t, c.Bind("nil", func(context.Context) (BusMiddleware, error) { return nil, nil }))
	_, err = c.Resolve(context.Background(), "nil")
	assert.ErrorIs(t, err, ErrMiddlewareNotFound)

	assert.Error(t, c.Bind("", func(context.Context) (BusMiddleware, error) { return nil, nil }))
	assert.Error(t, c.Bind("x", nil))
	assert.Error(t, c.Instance("x", nil))
	assert.Error(t, c.BindFunc("x", nil))
	assert.False(t, c.Has("x"))
	assert.True(t, c.Has("tx"))
}

// TestContainer_ResolvesOnEveryReachedCall checks that the bus resolves per call.
func TestContainer_ResolvesOnEveryReachedCall(t *testing.T) {
	c := NewContainer()
	built := 0
	require.NoError(t, c.Bind("audit", func(context.Context) (BusMiddleware, error) {
		built++
		return passMiddleware{}, nil
	}))

	bus, err := NewBusBuilder().
		WithInvoker(func(context.Context, any) (any, error) { return nil, nil }).
		WithResolver(c).
		WithCommandMiddleware(Ref("audit")).
		BuildCommandBus()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := bus.Dispatch(context.Background(), CreateUser{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, built)
}

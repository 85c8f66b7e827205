package xcqrs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAsyncObserver_Delivers forwards every queued event before Close returns.
func TestAsyncObserver_Delivers(t *testing.T) {
	var seen atomic.Int64
	a := NewAsyncObserver(context.Background(), ObserverFunc(func(Event) { seen.Add(1) }), 2, 64)

	bus, err := NewBusBuilder().
		WithInvoker(func(context.Context, any) (any, error) { return nil, nil }).
		WithObserver(a).
		BuildCommandBus()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := bus.Dispatch(context.Background(), CreateUser{})
		require.NoError(t, err)
	}
	require.NoError(t, a.Close(time.Second))

	assert.Equal(t, int64(20), seen.Load())
	assert.Equal(t, AsyncObserverStats{Processed: 20}, a.Stats())

	a.OnEvent(Event{})
	assert.Equal(t, uint64(20), a.Stats().Processed)
	assert.NoError(t, a.Close(time.Second))
}

// TestAsyncObserver_DropsWhenFull never blocks the caller.
func TestAsyncObserver_DropsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	a := NewAsyncObserver(context.Background(), ObserverFunc(func(Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-gate
	}), 1, 1)

	a.OnEvent(Event{})
	<-started
	a.OnEvent(Event{})
	a.OnEvent(Event{})
	a.OnEvent(Event{})
	assert.Equal(t, uint64(2), a.Stats().Dropped)

	close(gate)
	require.NoError(t, a.Close(time.Second))
	assert.Equal(t, uint64(2), a.Stats().Processed)
}

// TestAsyncObserver_PanicAndTimeout survives a panicking observer and bounds Close.
func TestAsyncObserver_PanicAndTimeout(t *testing.T) {
	a := NewAsyncObserver(context.Background(), ObserverFunc(func(Event) { panic("observer") }), 1, 4)
	a.OnEvent(Event{})
	require.NoError(t, a.Close(time.Second))
	assert.Zero(t, a.Stats().Processed)

	gate := make(chan struct{})
	defer close(gate)
	slow := NewAsyncObserver(context.Background(), ObserverFunc(func(Event) { <-gate }), 1, 4)
	slow.OnEvent(Event{})
	assert.ErrorIs(t, slow.Close(10*time.Millisecond), ErrObserverShutdownTimeout)
}

// TestBuilder_AsyncLoggingObserver keeps a wrapped LoggingObserver from being doubled.
func TestBuilder_AsyncLoggingObserver(t *testing.T) {
	a := NewAsyncObserver(context.Background(), LoggingObserver{}, 1, 8)
	t.Cleanup(func() { _ = a.Close(time.Second) })

	bus, err := NewBusBuilder().
		WithInvoker(func(context.Context, any) (any, error) { return nil, nil }).
		WithObserver(a).
		BuildQueryBus()
	require.NoError(t, err)
	assert.Len(t, bus.c.observers.list, 1)

	plain, err := NewBusBuilder().
		WithInvoker(func(context.Context, any) (any, error) { return nil, nil }).
		BuildQueryBus()
	require.NoError(t, err)
	assert.Len(t, plain.c.observers.list, 1)
	assert.IsType(t, LoggingObserver{}, plain.c.observers.list[0])
}

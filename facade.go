package xcqrs

import (
	"context"
	"sync"
)

var (
	defaultMu      sync.RWMutex
	defaultCommand *CommandBus
	defaultQuery   *QueryBus
)

// SetDefaultCommandBus replaces the process-wide command bus.
func SetDefaultCommandBus(b *CommandBus) {
	if b == nil {
		panic("xcqrs: SetDefaultCommandBus called with nil bus")
	}
	defaultMu.Lock()
	defaultCommand = b
	defaultMu.Unlock()
}

// SetDefaultQueryBus replaces the process-wide query bus.
func SetDefaultQueryBus(b *QueryBus) {
	if b == nil {
		panic("xcqrs: SetDefaultQueryBus called with nil bus")
	}
	defaultMu.Lock()
	defaultQuery = b
	defaultMu.Unlock()
}

// DefaultCommandBus returns the process-wide command bus.
func DefaultCommandBus() (*CommandBus, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultCommand == nil {
		return nil, ErrDefaultBusNotInitialized
	}
	return defaultCommand, nil
}

// DefaultQueryBus returns the process-wide query bus.
func DefaultQueryBus() (*QueryBus, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultQuery == nil {
		return nil, ErrDefaultBusNotInitialized
	}
	return defaultQuery, nil
}

// Dispatch is the Facade using the default command bus.
func Dispatch(ctx context.Context, cmd any) (any, error) {
	b, err := DefaultCommandBus()
	if err != nil {
		return nil, err
	}
	return b.Dispatch(ctx, cmd)
}

// Ask is the Facade using the default query bus.
func Ask(ctx context.Context, q any) (any, error) {
	b, err := DefaultQueryBus()
	if err != nil {
		return nil, err
	}
	return b.Ask(ctx, q)
}

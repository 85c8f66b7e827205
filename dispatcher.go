package xcqrs

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// HandlerFunc handles one message and returns its result.
type HandlerFunc func(ctx context.Context, msg any) (any, error)

// Dispatcher is the host side of the terminal step: it maps message names to
// handler locators and locators to handler functions. Invoke is the bus Invoker.
//
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	routes   map[string]string
	handlers map[string]HandlerFunc
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		routes:   make(map[string]string),
		handlers: make(map[string]HandlerFunc),
	}
}

// Map installs message name -> locator routes, overwriting existing keys.
func (d *Dispatcher) Map(routes map[string]string) {
	d.mu.Lock()
	maps.Copy(d.routes, routes)
	d.mu.Unlock()
}

// Routes returns a copy of the installed routes.
func (d *Dispatcher) Routes() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.routes)
}

// Handle registers h under locator (a type name or "Type#member").
func (d *Dispatcher) Handle(locator string, h HandlerFunc) {
	if locator == "" {
		panic("xcqrs: empty handler locator")
	}
	if h == nil {
		panic("xcqrs: nil handler for " + locator)
	}
	d.mu.Lock()
	d.handlers[locator] = h
	d.mu.Unlock()
}

// HandleFunc registers a typed handler. A message of another type yields ErrMessageType.
func HandleFunc[M any, R any](d *Dispatcher, locator string, fn func(ctx context.Context, msg M) (R, error)) {
	d.Handle(locator, func(ctx context.Context, raw any) (any, error) {
		msg, ok := raw.(M)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrMessageType, locator, raw)
		}
		return fn(ctx, msg)
	})
}

// Lookup returns the locator and handler for msg.
func (d *Dispatcher) Lookup(msg any) (string, HandlerFunc, error) {
	name := MessageName(msg)

	d.mu.RLock()
	locator, ok := d.routes[name]
	var h HandlerFunc
	if ok {
		h = d.handlers[locator]
	}
	d.mu.RUnlock()

	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrNoHandler, name)
	}
	if h == nil {
		return locator, nil, fmt.Errorf("%w: %s (for %s)", ErrHandlerNotRegistered, locator, name)
	}
	return locator, h, nil
}

// Invoke finds and calls the handler for msg. It satisfies Invoker.
func (d *Dispatcher) Invoke(ctx context.Context, msg any) (any, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	_, h, err := d.Lookup(msg)
	if err != nil {
		return nil, err
	}
	return h(ctx, msg)
}

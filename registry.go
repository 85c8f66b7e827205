package xcqrs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// MiddlewareFactory constructs a middleware instance for a reference name.
type MiddlewareFactory func(ctx context.Context) (BusMiddleware, error)

type binding struct {
	factory   MiddlewareFactory
	singleton bool
}

// Container is a Resolver backed by named factories. Singleton bindings are
// built once and kept in an instance cache; plain bindings build per call.
type Container struct {
	mu        sync.RWMutex
	factories map[string]binding
	instances *gocache.Cache
}

var _ Resolver = (*Container)(nil)

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{
		factories: make(map[string]binding),
		instances: gocache.New(gocache.NoExpiration, 0),
	}
}

// Bind registers a factory invoked on every resolution of name.
func (c *Container) Bind(name string, factory MiddlewareFactory) error {
	return c.register(name, factory, false)
}

// Singleton registers a factory whose first successful result is reused.
func (c *Container) Singleton(name string, factory MiddlewareFactory) error {
	return c.register(name, factory, true)
}

// Instance registers an already built middleware under name.
func (c *Container) Instance(name string, m BusMiddleware) error {
	if m == nil {
		return errors.New("middleware instance must not be nil")
	}
	return c.register(name, func(context.Context) (BusMiddleware, error) { return m, nil }, true)
}

// BindFunc registers a bound function under name.
func (c *Container) BindFunc(name string, fn MiddlewareFunc) error {
	if fn == nil {
		return errors.New("middleware func must not be nil")
	}
	return c.Instance(name, funcMiddleware(fn))
}

func (c *Container) register(name string, factory MiddlewareFactory, singleton bool) error {
	if name == "" {
		return errors.New("middleware name must not be empty")
	}
	if factory == nil {
		return errors.New("middleware factory must not be nil")
	}
	c.mu.Lock()
	c.factories[name] = binding{factory: factory, singleton: singleton}
	c.mu.Unlock()
	c.instances.Delete(name)
	return nil
}

// Has reports whether name is bound.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	_, ok := c.factories[name]
	c.mu.RUnlock()
	return ok
}

// Resolve implements Resolver.
func (c *Container) Resolve(ctx context.Context, name string) (BusMiddleware, error) {
	c.mu.RLock()
	b, ok := c.factories[name]
	c.mu.RUnlock()
	if !ok {
		return nil, MiddlewareNotFoundError{Name: name}
	}

	if b.singleton {
		if v, found := c.instances.Get(name); found {
			if m, ok := v.(BusMiddleware); ok {
				return m, nil
			}
		}
	}

	m, err := b.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("xcqrs: resolve middleware %q: %w", name, err)
	}
	if m == nil {
		return nil, MiddlewareNotFoundError{Name: name}
	}
	if b.singleton {
		c.instances.Set(name, m, gocache.NoExpiration)
	}
	return m, nil
}

// Forget drops cached singleton instances so they are rebuilt on next use.
func (c *Container) Forget(names ...string) {
	if len(names) == 0 {
		c.instances.Flush()
		return
	}
	for _, n := range names {
		c.instances.Delete(n)
	}
}

// ResolverFunc is an Adapter that lets a plain function satisfy Resolver.
type ResolverFunc func(ctx context.Context, name string) (BusMiddleware, error)

func (f ResolverFunc) Resolve(ctx context.Context, name string) (BusMiddleware, error) {
	return f(ctx, name)
}

type funcMiddleware MiddlewareFunc

func (f funcMiddleware) Handle(ctx context.Context, msg any, next Next) (any, error) {
	return f(ctx, msg, next)
}

package xcqrs

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

const (
	busCommand = "command"
	busQuery   = "query"
)

// core is the state shared by CommandBus and QueryBus.
//
// Tier state is guarded by mu: Middleware appends under the lock and every
// call captures base ++ extra ++ scoped and clears scoped in one critical
// section. The chain itself runs outside the lock.
type core struct {
	name      string
	invoke    Invoker
	pipeline  *Pipeline
	clock     xclock.Clock
	logger    *xlog.Logger
	observers *observers
	newID     func() string

	mu    sync.Mutex
	tiers Tiers
}

func newCore(name string, invoke Invoker, pipeline *Pipeline, tiers Tiers) *core {
	return &core{
		name:      name,
		invoke:    invoke,
		pipeline:  pipeline,
		clock:     xclock.Default(),
		logger:    xlog.Default(),
		observers: &observers{},
		newID:     uuid.NewString,
		tiers:     tiers,
	}
}

// take returns the effective chain for one call and resets the scoped tier.
func (c *core) take() []Middleware {
	c.mu.Lock()
	defer c.mu.Unlock()

	units := c.tiers.Effective()
	c.tiers = c.tiers.WithoutScoped()
	return units
}

func (c *core) run(ctx context.Context, msg any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	units := c.take()

	id := c.newID()
	ctx = injectDispatchID(ctx, id)
	ctx = injectLogger(ctx, c.logger)
	ctx = injectClock(ctx, c.clock)

	name := MessageName(msg)
	kind := KindOf(msg)
	c.observers.notify(Event{
		Type:        DispatchStart,
		Bus:         c.name,
		Kind:        kind,
		MessageName: name,
		DispatchID:  id,
		Middleware:  len(units),
	})

	start := c.clock.Now()
	res, err := c.pipeline.Run(ctx, msg, units, Next(c.invoke))

	c.observers.notify(Event{
		Type:        DispatchDone,
		Bus:         c.name,
		Kind:        kind,
		MessageName: name,
		DispatchID:  id,
		Middleware:  len(units),
		Duration:    c.clock.Since(start),
		Err:         err,
	})
	return res, err
}

func (c *core) appendExtra(units []Middleware) {
	if len(units) == 0 {
		return
	}
	c.mu.Lock()
	c.tiers = c.tiers.WithExtra(units...)
	c.mu.Unlock()
}

// clone returns an independent core with units appended to its scoped tier.
// Observers are shared with the origin; tiers never are.
func (c *core) clone(units []Middleware) *core {
	c.mu.Lock()
	snapshot := c.tiers
	c.mu.Unlock()

	return &core{
		name:      c.name,
		invoke:    c.invoke,
		pipeline:  c.pipeline,
		clock:     c.clock,
		logger:    c.logger,
		observers: c.observers,
		newID:     c.newID,
		tiers:     snapshot.WithScoped(units...),
	}
}

func (c *core) snapshot() Tiers {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Tiers values are never mutated in place, so handing out the value is safe.
	return c.tiers
}

// CommandBus dispatches commands synchronously through base, extra and scoped middleware.
type CommandBus struct {
	c *core
}

// Dispatch runs cmd through the effective chain and returns what the handler returned.
// Errors from any stage are returned unchanged.
func (b *CommandBus) Dispatch(ctx context.Context, cmd any) (any, error) {
	return b.c.run(ctx, cmd)
}

// Middleware appends units to the persistent extra tier and returns b.
func (b *CommandBus) Middleware(units ...Middleware) *CommandBus {
	b.c.appendExtra(units)
	return b
}

// WithMiddleware returns a copy of b whose next call also runs units. b is not modified.
func (b *CommandBus) WithMiddleware(units ...Middleware) *CommandBus {
	return &CommandBus{c: b.c.clone(units)}
}

// Tiers returns the current tier set.
func (b *CommandBus) Tiers() Tiers { return b.c.snapshot() }

// AddObserver registers an observer (thread-safe).
func (b *CommandBus) AddObserver(obs Observer) { b.c.observers.add(obs) }

// RemoveObserver removes an observer.
func (b *CommandBus) RemoveObserver(obs Observer) { b.c.observers.remove(obs) }

// QueryBus asks queries synchronously through base, extra and scoped middleware.
type QueryBus struct {
	c *core
}

// Ask runs q through the effective chain and returns the handler's answer.
// Errors from any stage are returned unchanged.
func (b *QueryBus) Ask(ctx context.Context, q any) (any, error) {
	return b.c.run(ctx, q)
}

// Middleware appends units to the persistent extra tier and returns b.
func (b *QueryBus) Middleware(units ...Middleware) *QueryBus {
	b.c.appendExtra(units)
	return b
}

// WithMiddleware returns a copy of b whose next call also runs units. b is not modified.
func (b *QueryBus) WithMiddleware(units ...Middleware) *QueryBus {
	return &QueryBus{c: b.c.clone(units)}
}

// Tiers returns the current tier set.
func (b *QueryBus) Tiers() Tiers { return b.c.snapshot() }

// AddObserver registers an observer (thread-safe).
func (b *QueryBus) AddObserver(obs Observer) { b.c.observers.add(obs) }

// RemoveObserver removes an observer.
func (b *QueryBus) RemoveObserver(obs Observer) { b.c.observers.remove(obs) }

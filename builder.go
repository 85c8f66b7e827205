package xcqrs

import (
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// BusBuilder constructs CommandBus and QueryBus instances (Builder pattern).
type BusBuilder struct {
	invoker  Invoker
	resolver Resolver
	cfg      Config

	commandBase []Middleware
	queryBase   []Middleware

	observers []Observer
	logger    *xlog.Logger
	clock     xclock.Clock
	newID     func() string
}

// NewBusBuilder returns a new builder with sensible defaults.
func NewBusBuilder() *BusBuilder {
	return &BusBuilder{cfg: DefaultConfig()}
}

// WithInvoker sets the terminal step (typically Dispatcher.Invoke).
func (bb *BusBuilder) WithInvoker(inv Invoker) *BusBuilder {
	bb.invoker = inv
	return bb
}

// WithResolver sets the resolver for Ref units, including configured names.
func (bb *BusBuilder) WithResolver(r Resolver) *BusBuilder {
	bb.resolver = r
	return bb
}

// WithConfig sets the configuration. Configured middleware names lead the base tier.
func (bb *BusBuilder) WithConfig(cfg Config) *BusBuilder {
	bb.cfg = cfg
	return bb
}

// WithCommandMiddleware appends units to the command base tier after configured names.
func (bb *BusBuilder) WithCommandMiddleware(units ...Middleware) *BusBuilder {
	bb.commandBase = append(bb.commandBase, units...)
	return bb
}

// WithQueryMiddleware appends units to the query base tier after configured names.
func (bb *BusBuilder) WithQueryMiddleware(units ...Middleware) *BusBuilder {
	bb.queryBase = append(bb.queryBase, units...)
	return bb
}

func (bb *BusBuilder) WithObserver(obs ...Observer) *BusBuilder {
	for _, o := range obs {
		if o != nil {
			bb.observers = append(bb.observers, o)
		}
	}
	return bb
}

func (bb *BusBuilder) WithLogger(l *xlog.Logger) *BusBuilder {
	bb.logger = l
	return bb
}

func (bb *BusBuilder) WithClock(c xclock.Clock) *BusBuilder {
	bb.clock = c
	return bb
}

// WithIDGenerator replaces the uuid dispatch ID generator.
func (bb *BusBuilder) WithIDGenerator(fn func() string) *BusBuilder {
	bb.newID = fn
	return bb
}

// BuildCommandBus builds a command bus.
func (bb *BusBuilder) BuildCommandBus() (*CommandBus, error) {
	c, err := bb.build(busCommand, bb.cfg.CommandMiddleware, bb.commandBase)
	if err != nil {
		return nil, err
	}
	return &CommandBus{c: c}, nil
}

// BuildQueryBus builds a query bus.
func (bb *BusBuilder) BuildQueryBus() (*QueryBus, error) {
	c, err := bb.build(busQuery, bb.cfg.QueryMiddleware, bb.queryBase)
	if err != nil {
		return nil, err
	}
	return &QueryBus{c: c}, nil
}

func (bb *BusBuilder) build(name string, configured []string, explicit []Middleware) (*core, error) {
	if bb.invoker == nil {
		return nil, ErrNoInvokerConfigured
	}

	base := append(Refs(configured...), explicit...)
	c := newCore(name, bb.invoker, NewPipeline(bb.resolver), NewTiers(base))

	if bb.clock != nil {
		c.clock = bb.clock
	}
	if bb.logger != nil {
		c.logger = bb.logger
	}
	if bb.newID != nil {
		c.newID = bb.newID
	}

	// Attach logging observer first for dependable telemetry unless already supplied externally.
	hasLoggingObserver := false
	for _, o := range bb.observers {
		if isLoggingObserver(o) {
			hasLoggingObserver = true
			break
		}
	}
	if !hasLoggingObserver && c.logger != nil {
		c.observers.add(LoggingObserver{Logger: c.logger})
	}
	for _, o := range bb.observers {
		c.observers.add(o)
	}

	return c, nil
}

func isLoggingObserver(o Observer) bool {
	switch v := o.(type) {
	case LoggingObserver:
		return true
	case *AsyncObserver:
		_, ok := v.next.(LoggingObserver)
		return ok
	default:
		return false
	}
}

// New builds a command bus and a query bus from one builder.
func New(init func(b *BusBuilder)) (*CommandBus, *QueryBus, error) {
	b := NewBusBuilder()
	if init != nil {
		init(b)
	}
	cb, err := b.BuildCommandBus()
	if err != nil {
		return nil, nil, err
	}
	qb, err := b.BuildQueryBus()
	if err != nil {
		return nil, nil, err
	}
	return cb, qb, nil
}

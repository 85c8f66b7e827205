package xcqrs

import (
	"context"
)

// Next continues the pipeline with (possibly replaced) msg.
type Next func(ctx context.Context, msg any) (any, error)

// Invoker is the terminal step: handler lookup and invocation owned by the host.
type Invoker func(ctx context.Context, msg any) (any, error)

// MiddlewareFunc is a bound middleware function.
type MiddlewareFunc func(ctx context.Context, msg any, next Next) (any, error)

// BusMiddleware is an object middleware. It may act before and/or after next.
type BusMiddleware interface {
	Handle(ctx context.Context, msg any, next Next) (any, error)
}

// Resolver turns a middleware reference into an instance.
type Resolver interface {
	Resolve(ctx context.Context, name string) (BusMiddleware, error)
}

// Observer receives bus lifecycle events. Implementations should be fast; they run inline.
type Observer interface {
	OnEvent(e Event)
}

// CommandDispatcher is the command side surface.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, cmd any) (any, error)
	Middleware(units ...Middleware) *CommandBus
	WithMiddleware(units ...Middleware) *CommandBus
}

// QueryAsker is the query side surface.
type QueryAsker interface {
	Ask(ctx context.Context, q any) (any, error)
	Middleware(units ...Middleware) *QueryBus
	WithMiddleware(units ...Middleware) *QueryBus
}

var (
	_ CommandDispatcher = (*CommandBus)(nil)
	_ QueryAsker        = (*QueryBus)(nil)
)

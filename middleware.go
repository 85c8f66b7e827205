package xcqrs

import (
	"context"
	"fmt"

	"github.com/trickstertwo/xclock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type middlewareKind uint8

const (
	kindNone middlewareKind = iota
	kindFunc
	kindObject
	kindRef
)

// Middleware is one unit of the chain: a bound function, an object, or a
// named reference resolved when its position in the chain is reached.
// The zero value is a pass-through.
type Middleware struct {
	kind middlewareKind
	fn   MiddlewareFunc
	obj  BusMiddleware
	ref  string
}

// Func wraps a bound function.
func Func(fn MiddlewareFunc) Middleware {
	if fn == nil {
		return Middleware{}
	}
	return Middleware{kind: kindFunc, fn: fn}
}

// Use wraps an instantiated middleware object.
func Use(m BusMiddleware) Middleware {
	if m == nil {
		return Middleware{}
	}
	return Middleware{kind: kindObject, obj: m}
}

// Ref defers to the pipeline's Resolver under name.
func Ref(name string) Middleware {
	return Middleware{kind: kindRef, ref: name}
}

// Refs converts names into references, preserving order.
func Refs(names ...string) []Middleware {
	out := make([]Middleware, 0, len(names))
	for _, n := range names {
		out = append(out, Ref(n))
	}
	return out
}

// Name returns the reference name, or "" for bound units.
func (m Middleware) Name() string { return m.ref }

// IsRef reports whether m is resolved lazily.
func (m Middleware) IsRef() bool { return m.kind == kindRef }

func (m Middleware) String() string {
	switch m.kind {
	case kindFunc:
		return "func"
	case kindObject:
		return fmt.Sprintf("%T", m.obj)
	case kindRef:
		return "ref:" + m.ref
	default:
		return "noop"
	}
}

// RecoveryMiddleware converts handler panics into errors. Opt-in; the bus itself never recovers.
func RecoveryMiddleware() Middleware {
	return Func(func(ctx context.Context, msg any, next Next) (res any, err error) {
		defer func() {
			if r := recover(); r != nil {
				res = nil
				err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			}
		}()
		return next(ctx, msg)
	})
}

// ExecutionTimeMiddleware reports how long the rest of the chain took as an
// Executed event. Failed calls report nothing.
func ExecutionTimeMiddleware(obs Observer, clock xclock.Clock) Middleware {
	if obs == nil {
		return Middleware{}
	}
	if clock == nil {
		clock = xclock.Default()
	}
	return Func(func(ctx context.Context, msg any, next Next) (any, error) {
		start := clock.Now()

		res, err := next(ctx, msg)
		if err != nil {
			return res, err
		}

		obs.OnEvent(Event{
			Type:        Executed,
			Kind:        KindOf(msg),
			MessageName: MessageName(msg),
			DispatchID:  DispatchIDFromContext(ctx),
			Duration:    clock.Since(start),
		})
		return res, nil
	})
}

// TracingMiddleware opens a span around the rest of the chain. Errors are
// recorded on the span and returned untouched.
func TracingMiddleware(tracer trace.Tracer) Middleware {
	if tracer == nil {
		return Middleware{}
	}
	return Func(func(ctx context.Context, msg any, next Next) (any, error) {
		kind := KindOf(msg)
		name := MessageName(msg)
		ctx, span := tracer.Start(ctx, "cqrs."+kind+" "+name,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("cqrs.kind", kind),
				attribute.String("cqrs.message", name),
			),
		)
		defer span.End()

		if id := DispatchIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("cqrs.dispatch_id", id))
		}

		res, err := next(ctx, msg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return res, err
		}
		span.SetStatus(codes.Ok, "")
		return res, nil
	})
}

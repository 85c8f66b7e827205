package xcqrs

import (
	"context"
)

// Pipeline composes middleware units around a terminal function.
//
// References are resolved lazily: a Ref unit asks the Resolver only when its
// position is invoked, so a bad reference behind a short-circuit never fails.
type Pipeline struct {
	resolver Resolver
}

// NewPipeline returns a pipeline using r for Ref units. r may be nil when no Ref units are used.
func NewPipeline(r Resolver) *Pipeline {
	return &Pipeline{resolver: r}
}

// Build returns units[0](ctx, msg, units[1](... terminal)).
func (p *Pipeline) Build(units []Middleware, terminal Next) Next {
	next := terminal
	// Apply in reverse so that the first unit wraps the rest.
	for i := len(units) - 1; i >= 0; i-- {
		next = p.stage(units[i], next)
	}
	return next
}

// Run builds and executes the chain once.
func (p *Pipeline) Run(ctx context.Context, msg any, units []Middleware, terminal Next) (any, error) {
	return p.Build(units, terminal)(ctx, msg)
}

func (p *Pipeline) stage(m Middleware, next Next) Next {
	switch m.kind {
	case kindFunc:
		fn := m.fn
		return func(ctx context.Context, msg any) (any, error) {
			return fn(ctx, msg, next)
		}
	case kindObject:
		obj := m.obj
		return func(ctx context.Context, msg any) (any, error) {
			return obj.Handle(ctx, msg, next)
		}
	case kindRef:
		name := m.ref
		return func(ctx context.Context, msg any) (any, error) {
			if p.resolver == nil {
				return nil, ErrNoResolver
			}
			obj, err := p.resolver.Resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			if obj == nil {
				return nil, MiddlewareNotFoundError{Name: name}
			}
			return obj.Handle(ctx, msg, next)
		}
	default:
		return next
	}
}

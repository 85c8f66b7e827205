package xcqrs

import (
	"errors"
	"fmt"
)

var (
	ErrNoInvokerConfigured  = errors.New("xcqrs: no invoker configured")
	ErrNoResolver           = errors.New("xcqrs: middleware reference used without a resolver")
	ErrMiddlewareNotFound   = errors.New("xcqrs: middleware not found")
	ErrHandlerPanic         = errors.New("xcqrs: handler panic")
	ErrNoHandler            = errors.New("xcqrs: no handler mapped for message")
	ErrHandlerNotRegistered = errors.New("xcqrs: handler locator not registered")
	ErrMessageType          = errors.New("xcqrs: unexpected message type for handler")
	ErrNilMessage           = errors.New("xcqrs: nil message")

	ErrObserverShutdownTimeout = errors.New("xcqrs: async observer shutdown timeout")

	ErrDefaultBusNotInitialized = errors.New("xcqrs: default bus not initialized")
)

// MiddlewareNotFoundError is returned by resolvers for unknown references.
type MiddlewareNotFoundError struct{ Name string }

func (e MiddlewareNotFoundError) Error() string {
	return fmt.Sprintf("xcqrs: middleware %q not found", e.Name)
}

func (e MiddlewareNotFoundError) Is(target error) bool { return target == ErrMiddlewareNotFound }

package xcqrs

import (
	"time"
)

// EventType enumerates bus lifecycle events for the Observer pattern.
type EventType string

const (
	DispatchStart EventType = "dispatch_start"
	DispatchDone  EventType = "dispatch_done"
	Executed      EventType = "executed"
)

// Event carries telemetry for observers.
type Event struct {
	Type        EventType
	Bus         string // "command" or "query"
	Kind        string // KindOf(message)
	MessageName string
	DispatchID  string
	Middleware  int // effective chain length
	Duration    time.Duration
	Err         error
}

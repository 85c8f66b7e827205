package xcqrs

import (
	"reflect"
)

// Command is the marker for messages that change state. Embed CommandBase to satisfy it.
type Command interface {
	cqrsCommand()
}

// Query is the marker for messages that read state. Embed QueryBase to satisfy it.
type Query interface {
	cqrsQuery()
}

// CommandBase is embedded by command DTOs.
type CommandBase struct{}

func (CommandBase) cqrsCommand() {}

// QueryBase is embedded by query DTOs.
type QueryBase struct{}

func (QueryBase) cqrsQuery() {}

// Named lets a message choose its routing name instead of the Go type name.
type Named interface {
	MessageName() string
}

// Message kinds reported by KindOf.
const (
	KindCommand = "command"
	KindQuery   = "query"
	KindMessage = "message"
)

// KindOf reports the family of msg.
func KindOf(msg any) string {
	switch msg.(type) {
	case Query:
		return KindQuery
	case Command:
		return KindCommand
	default:
		return KindMessage
	}
}

// MessageName returns the routing name for msg: Named.MessageName when
// implemented, otherwise the Go type (pointers dereferenced), e.g. "users.CreateUser".
func MessageName(msg any) string {
	if n, ok := msg.(Named); ok {
		if name := n.MessageName(); name != "" {
			return name
		}
	}
	t := reflect.TypeOf(msg)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

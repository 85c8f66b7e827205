package discovery

import (
	"errors"
	"fmt"
	"maps"
)

// Kind is the message family a registration targets.
type Kind uint8

const (
	Command Kind = iota + 1
	Query
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "command"
	case Query:
		return "query"
	default:
		return "unknown"
	}
}

// Registration declares that a type (or member) handles Message.
type Registration struct {
	Kind    Kind
	Message string
}

// Member is a method-like member of a handler type.
type Member struct {
	Name          string
	Exported      bool
	Registrations []Registration
}

// Descriptor is the registration metadata of one type.
type Descriptor struct {
	Abstract      bool
	Interface     bool
	Registrations []Registration // class level
	Members       []Member
}

// Entry is one universe element. Describe may fail; such entries are skipped.
type Entry struct {
	Type     string
	Path     string
	Describe func() (Descriptor, error)
}

var (
	// ErrSourceUnavailable means there is nothing to scan (e.g. no classmap). Not a failure.
	ErrSourceUnavailable = errors.New("discovery: source unavailable")
	// ErrNoDescriptor is returned by Describe for types without metadata.
	ErrNoDescriptor = errors.New("discovery: no descriptor for type")
	// ErrDuplicateRegistration reports two types handling one message in strict mode.
	ErrDuplicateRegistration = errors.New("discovery: duplicate handler registration")
)

// Source supplies the universe in scan order.
type Source interface {
	Entries() ([]Entry, error)
}

// SourceFunc is an Adapter that lets a plain function satisfy Source.
type SourceFunc func() ([]Entry, error)

func (f SourceFunc) Entries() ([]Entry, error) { return f() }

// Static returns a Source over fixed entries.
func Static(entries ...Entry) Source {
	return SourceFunc(func() ([]Entry, error) { return entries, nil })
}

// Result is the outcome of a discovery run.
type Result struct {
	Commands map[string]Locator
	Queries  map[string]Locator
}

func newResult() Result {
	return Result{Commands: map[string]Locator{}, Queries: map[string]Locator{}}
}

// CommandMap returns commands as plain strings, the persisted form.
func (r Result) CommandMap() map[string]string { return stringMap(r.Commands) }

// QueryMap returns queries as plain strings, the persisted form.
func (r Result) QueryMap() map[string]string { return stringMap(r.Queries) }

// Empty reports whether nothing was found.
func (r Result) Empty() bool { return len(r.Commands) == 0 && len(r.Queries) == 0 }

// Clone returns a deep copy.
func (r Result) Clone() Result {
	return Result{Commands: maps.Clone(r.Commands), Queries: maps.Clone(r.Queries)}
}

func stringMap(m map[string]Locator) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = string(v)
	}
	return out
}

// SkipReason says why an entry contributed nothing.
type SkipReason string

const (
	ReasonNone             SkipReason = ""
	ReasonNamespace        SkipReason = "outside_namespace"
	ReasonApplicationLayer SkipReason = "outside_application_layer"
	ReasonHandlerDir       SkipReason = "outside_handler_directory"
	ReasonAbstract         SkipReason = "abstract"
	ReasonInterface        SkipReason = "interface"
	ReasonUnreflectable    SkipReason = "unreflectable"
)

// Found is one registration extracted from an accepted entry.
type Found struct {
	Kind    Kind
	Message string
	Locator Locator
}

// Outcome is the per-entry result of a scan.
type Outcome struct {
	Entry  Entry
	Reason SkipReason
	Err    error // set for ReasonUnreflectable
	Found  []Found
}

// Skipped reports whether the entry was filtered out.
func (o Outcome) Skipped() bool { return o.Reason != ReasonNone }

// DuplicateRegistrationError names both handlers claiming one message.
type DuplicateRegistrationError struct {
	Kind     Kind
	Message  string
	Previous Locator
	Current  Locator
}

func (e DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("discovery: %s %q handled by both %s and %s", e.Kind, e.Message, e.Previous, e.Current)
}

func (e DuplicateRegistrationError) Is(target error) bool { return target == ErrDuplicateRegistration }

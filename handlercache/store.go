// Package handlercache persists and boots handler maps (message name to
// handler locator). Stores are pluggable: adapters register a factory under a
// name and callers open them with NewStore.
package handlercache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// HandlerType selects one of the two persisted maps.
type HandlerType string

const (
	CommandHandlers HandlerType = "command-handlers"
	QueryHandlers   HandlerType = "query-handlers"
)

var ErrInvalidHandlerType = errors.New("handlercache: invalid handler type")

// Types returns both handler types, commands first.
func Types() []HandlerType { return []HandlerType{CommandHandlers, QueryHandlers} }

// Validate returns ErrInvalidHandlerType for anything but the two known types.
func (t HandlerType) Validate() error {
	switch t {
	case CommandHandlers, QueryHandlers:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidHandlerType, string(t))
	}
}

// ParseHandlerType validates s.
func ParseHandlerType(s string) (HandlerType, error) {
	t := HandlerType(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Store is the Strategy interface for handler map persistence.
type Store interface {
	// Load returns the stored map; ok is false when nothing is stored.
	Load(ctx context.Context, t HandlerType) (m map[string]string, ok bool, err error)
	// Save replaces the stored map.
	Save(ctx context.Context, t HandlerType, m map[string]string) error
	// Clear removes the stored map. Clearing a missing map is not an error.
	Clear(ctx context.Context, t HandlerType) error
}

// StoreFactory constructs stores from a config blob.
type StoreFactory func(cfg map[string]any) (Store, error)

// ErrUnknownStore is returned by NewStore for unregistered names.
type ErrUnknownStore struct{ name string }

func (e ErrUnknownStore) Error() string { return "handlercache: unknown store: " + e.name }

var (
	storeRegistryMu sync.RWMutex
	storeRegistry   = map[string]StoreFactory{}
)

// RegisterStore registers a store adapter.
func RegisterStore(name string, factory StoreFactory) error {
	if name == "" {
		return errors.New("store name must not be empty")
	}
	if factory == nil {
		return errors.New("store factory must not be nil")
	}
	storeRegistryMu.Lock()
	storeRegistry[name] = factory
	storeRegistryMu.Unlock()
	return nil
}

// NewStore constructs a store by name with config.
func NewStore(name string, cfg map[string]any) (Store, error) {
	storeRegistryMu.RLock()
	f, ok := storeRegistry[name]
	storeRegistryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownStore{name: name}
	}
	return f(cfg)
}

// Stores lists registered store names, sorted.
func Stores() []string {
	storeRegistryMu.RLock()
	defer storeRegistryMu.RUnlock()
	names := make([]string, 0, len(storeRegistry))
	for n := range storeRegistry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

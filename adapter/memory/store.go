// Package memory provides an in-process handlercache.Store (dev/testing).
//
// Store name: "memory"
//
// Config keys:
// - ttl: expiry of saved maps (time.Duration or string, default 0 = never)
package memory

import (
	"context"
	"fmt"
	"maps"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/trickstertwo/xcqrs/handlercache"
)

const StoreName = "memory"

func init() {
	if err := handlercache.RegisterStore(StoreName, func(cfg map[string]any) (handlercache.Store, error) {
		return NewStore(ConfigFromMap(cfg)), nil
	}); err != nil {
		panic(fmt.Errorf("xcqrs/memory: failed to register store: %w", err))
	}
}

// Config controls memory store behavior.
type Config struct {
	// TTL expires saved maps (default: 0 = never).
	TTL time.Duration
}

func ConfigFromMap(cfg map[string]any) Config {
	var c Config
	switch v := cfg["ttl"].(type) {
	case time.Duration:
		c.TTL = v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			c.TTL = d
		}
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
	return c
}

// Store keeps handler maps in memory.
type Store struct {
	cfg   Config
	items *gocache.Cache
}

var _ handlercache.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	ttl, cleanup := gocache.NoExpiration, time.Duration(0)
	if cfg.TTL > 0 {
		ttl, cleanup = cfg.TTL, cfg.TTL
	}
	return &Store{cfg: cfg, items: gocache.New(ttl, cleanup)}
}

func (s *Store) Load(_ context.Context, t handlercache.HandlerType) (map[string]string, bool, error) {
	if err := t.Validate(); err != nil {
		return nil, false, err
	}
	v, ok := s.items.Get(string(t))
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(v.(map[string]string)), true, nil
}

func (s *Store) Save(_ context.Context, t handlercache.HandlerType, m map[string]string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cp := maps.Clone(m)
	if cp == nil {
		cp = map[string]string{}
	}
	s.items.Set(string(t), cp, gocache.DefaultExpiration)
	return nil
}

func (s *Store) Clear(_ context.Context, t handlercache.HandlerType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.items.Delete(string(t))
	return nil
}

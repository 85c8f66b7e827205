// Package filecache stores handler maps as two JSON files, one per handler type.
//
// Store name: "file"
//
// Config keys:
// - command_handlers: path of the command map (default "bootstrap/cache/command-handlers.json")
// - query_handlers: path of the query map (default "bootstrap/cache/query-handlers.json")
package filecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/trickstertwo/xcqrs/handlercache"
)

const StoreName = "file"

// ConfigCompatibleWithStandardLibrary sorts map keys.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	if err := handlercache.RegisterStore(StoreName, func(cfg map[string]any) (handlercache.Store, error) {
		s, err := NewStore(ConfigFromMap(cfg))
		if err != nil {
			return nil, err
		}
		return s, nil
	}); err != nil {
		panic(fmt.Errorf("xcqrs/filecache: failed to register store: %w", err))
	}
}

// Config names the two files.
type Config struct {
	CommandHandlers string
	QueryHandlers   string
}

// Defaults returns the conventional bootstrap cache paths.
func Defaults() Config {
	return Config{
		CommandHandlers: filepath.Join("bootstrap", "cache", "command-handlers.json"),
		QueryHandlers:   filepath.Join("bootstrap", "cache", "query-handlers.json"),
	}
}

// Validate checks both paths are set and distinct.
func (c Config) Validate() error {
	if c.CommandHandlers == "" || c.QueryHandlers == "" {
		return fmt.Errorf("config: both handler paths required")
	}
	if filepath.Clean(c.CommandHandlers) == filepath.Clean(c.QueryHandlers) {
		return fmt.Errorf("config: command and query handler paths must differ")
	}
	return nil
}

// ConfigFromMap safely converts generic map to Config with defaults.
func ConfigFromMap(m map[string]any) Config {
	c := Defaults()
	if v, ok := m["command_handlers"].(string); ok && v != "" {
		c.CommandHandlers = v
	}
	if v, ok := m["query_handlers"].(string); ok && v != "" {
		c.QueryHandlers = v
	}
	return c
}

// Store reads and writes the two files.
type Store struct {
	cfg Config
}

var _ handlercache.Store = (*Store)(nil)

// NewStore validates cfg.
func NewStore(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{cfg: cfg}, nil
}

// Path returns the file of t.
func (s *Store) Path(t handlercache.HandlerType) (string, error) {
	switch t {
	case handlercache.CommandHandlers:
		return s.cfg.CommandHandlers, nil
	case handlercache.QueryHandlers:
		return s.cfg.QueryHandlers, nil
	default:
		return "", t.Validate()
	}
}

func (s *Store) Load(_ context.Context, t handlercache.HandlerType) (map[string]string, bool, error) {
	path, err := s.Path(t)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, true, nil
}

// Save writes through a temp file and rename, so readers never see a partial map.
func (s *Store) Save(_ context.Context, t handlercache.HandlerType, m map[string]string) error {
	path, err := s.Path(t)
	if err != nil {
		return err
	}
	if m == nil {
		m = map[string]string{}
	}
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) Clear(_ context.Context, t handlercache.HandlerType) error {
	path, err := s.Path(t)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

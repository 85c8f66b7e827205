// Package rediscache stores handler maps in Redis, one JSON value per handler type.
//
// Store name: "redis"
//
// Config keys:
// - addr: "host:port" (default "127.0.0.1:6379")
// - username, password, db
// - tls, tls_server_name
// - key_prefix: key prefix (default "xcqrs:handlers:"), the handler type is appended
// - ttl: expiry of saved maps (default 0 = never)
//
// The same settings are read from XCQRS_REDIS_* by ConfigFromEnv.
package rediscache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/trickstertwo/xcqrs/handlercache"
)

const StoreName = "redis"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	if err := handlercache.RegisterStore(StoreName, func(cfg map[string]any) (handlercache.Store, error) {
		s, err := NewStore(ConfigFromMap(cfg))
		if err != nil {
			return nil, err
		}
		return s, nil
	}); err != nil {
		panic(fmt.Errorf("xcqrs: failed to register store %q: %w", StoreName, err))
	}
}

// Store keeps handler maps under <prefix><handler type>.
type Store struct {
	cfg    Config
	client redis.UniversalClient
	owned  bool
}

var _ handlercache.Store = (*Store)(nil)

// NewStore connects to Redis and pings it.
func NewStore(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Username:   cfg.Username,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: 3,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion:    tls.VersionTLS12,
			ServerName:    cfg.TLSServerName,
			Renegotiation: tls.RenegotiateNever,
		}
	}

	client := redis.NewClient(opts)
	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Store{cfg: cfg, client: client, owned: true}, nil
}

// NewStoreWithClient uses an existing client. Close leaves it open.
func NewStoreWithClient(client redis.UniversalClient, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("rediscache: nil client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{cfg: cfg, client: client}, nil
}

// Open builds the store through the handlercache registry.
func Open(cfg Config) (handlercache.Store, error) {
	return handlercache.NewStore(StoreName, cfg.toMap())
}

// Key returns the Redis key of t.
func (s *Store) Key(t handlercache.HandlerType) string { return s.cfg.KeyPrefix + string(t) }

func (s *Store) Load(ctx context.Context, t handlercache.HandlerType) (map[string]string, bool, error) {
	if err := t.Validate(); err != nil {
		return nil, false, err
	}
	data, err := s.client.Get(ctx, s.Key(t)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", s.Key(t), err)
	}
	return m, true, nil
}

func (s *Store) Save(ctx context.Context, t handlercache.HandlerType, m map[string]string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if m == nil {
		m = map[string]string{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.Key(t), data, s.cfg.TTL).Err()
}

func (s *Store) Clear(ctx context.Context, t handlercache.HandlerType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.client.Del(ctx, s.Key(t)).Err()
}

// Close releases the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

func ping(c *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := c.Ping(ctx).Result()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("redis ping timeout: %w", err)
		}
		return err
	}
	if strings.ToUpper(res) != "PONG" {
		return fmt.Errorf("unexpected redis ping result: %s", res)
	}
	return nil
}

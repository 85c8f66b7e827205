package rediscache

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config for the Redis handler map store.
type Config struct {
	// Connection
	Addr          string `env:"XCQRS_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Username      string `env:"XCQRS_REDIS_USERNAME"`
	Password      string `env:"XCQRS_REDIS_PASSWORD"`
	DB            int    `env:"XCQRS_REDIS_DB" envDefault:"0"`
	TLS           bool   `env:"XCQRS_REDIS_TLS" envDefault:"false"`
	TLSServerName string `env:"XCQRS_REDIS_TLS_SERVER_NAME"`

	// Keys
	KeyPrefix string        `env:"XCQRS_REDIS_KEY_PREFIX" envDefault:"xcqrs:handlers:"`
	TTL       time.Duration `env:"XCQRS_REDIS_TTL" envDefault:"0s"`
}

// Defaults returns a Config for a local Redis.
func Defaults() Config {
	return Config{
		Addr:      "127.0.0.1:6379",
		KeyPrefix: "xcqrs:handlers:",
	}
}

// ConfigFromEnv reads XCQRS_REDIS_* variables.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("rediscache: parse env: %w", err)
	}
	return c, nil
}

// Validate checks Config.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr required")
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("config: key_prefix required")
	}
	if c.TTL < 0 {
		return fmt.Errorf("config: ttl must be >= 0, got %v", c.TTL)
	}
	return nil
}

// toMap converts Config to the generic map expected by the store factory.
func (c Config) toMap() map[string]any {
	return map[string]any{
		"addr":            c.Addr,
		"username":        c.Username,
		"password":        c.Password,
		"db":              c.DB,
		"tls":             c.TLS,
		"tls_server_name": c.TLSServerName,
		"key_prefix":      c.KeyPrefix,
		"ttl":             c.TTL,
	}
}

// ConfigFromMap safely converts generic map to Config with defaults.
func ConfigFromMap(m map[string]any) Config {
	c := Defaults()

	if v, ok := m["addr"].(string); ok && v != "" {
		c.Addr = v
	}
	if v, ok := m["username"].(string); ok {
		c.Username = v
	}
	if v, ok := m["password"].(string); ok {
		c.Password = v
	}
	if v, ok := m["db"].(int); ok {
		c.DB = v
	}
	if v, ok := m["tls"].(bool); ok {
		c.TLS = v
	}
	if v, ok := m["tls_server_name"].(string); ok {
		c.TLSServerName = v
	}
	if v, ok := m["key_prefix"].(string); ok && v != "" {
		c.KeyPrefix = v
	}
	switch v := m["ttl"].(type) {
	case time.Duration:
		c.TTL = v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			c.TTL = d
		}
	}

	return c
}

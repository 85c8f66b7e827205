package xcqrs

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"github.com/trickstertwo/xlog"
)

// Configuration keys.
const (
	KeyCommandMiddleware = "cqrs.command.middleware"
	KeyQueryMiddleware   = "cqrs.query.middleware"
	KeyCommandHandlers   = "message-bus.paths.command_handlers"
	KeyQueryHandlers     = "message-bus.paths.query_handlers"
	KeyNamespace         = "message-bus.discovery.namespace"
	KeyApplicationDir    = "message-bus.discovery.application_dir"
	KeyEnv               = "app.env"
)

// Config is the bus configuration. Middleware entries are reference names
// resolved through the bus Resolver.
type Config struct {
	CommandMiddleware []string
	QueryMiddleware   []string
	Paths             PathsConfig
	Discovery         DiscoveryConfig
	Env               string
}

// PathsConfig locates the cached handler maps.
type PathsConfig struct {
	CommandHandlers string
	QueryHandlers   string
}

// DiscoveryConfig scopes handler discovery.
type DiscoveryConfig struct {
	Namespace      string
	ApplicationDir string
}

// DefaultConfig returns the configuration used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			CommandHandlers: "bootstrap/cache/command-handlers.json",
			QueryHandlers:   "bootstrap/cache/query-handlers.json",
		},
		Discovery: DiscoveryConfig{
			Namespace:      `Monolith\`,
			ApplicationDir: "/Application/",
		},
		Env: "production",
	}
}

// IsLocal reports whether discovery may run at boot.
func (c Config) IsLocal() bool {
	switch strings.ToLower(c.Env) {
	case "local", "development", "dev":
		return true
	default:
		return false
	}
}

// LoadConfig reads path (any format viper understands) with XCQRS_* env
// overrides. A missing file yields DefaultConfig and no error; an unreadable
// file yields DefaultConfig and the read error.
func LoadConfig(path string) (Config, error) {
	v := NewViper()
	if path == "" {
		return ConfigFromViper(v), nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist) {
			return ConfigFromViper(v), nil
		}
		return ConfigFromViper(viper.New()), err
	}
	return ConfigFromViper(v), nil
}

// NewViper returns a viper instance with defaults and env binding set up.
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault(KeyCommandHandlers, d.Paths.CommandHandlers)
	v.SetDefault(KeyQueryHandlers, d.Paths.QueryHandlers)
	v.SetDefault(KeyNamespace, d.Discovery.Namespace)
	v.SetDefault(KeyApplicationDir, d.Discovery.ApplicationDir)
	v.SetDefault(KeyEnv, d.Env)
	v.SetEnvPrefix("XCQRS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ConfigFromViper extracts Config from v. Malformed middleware lists become empty.
func ConfigFromViper(v *viper.Viper) Config {
	c := DefaultConfig()
	c.CommandMiddleware = configuredMiddleware(v, KeyCommandMiddleware)
	c.QueryMiddleware = configuredMiddleware(v, KeyQueryMiddleware)
	if s := v.GetString(KeyCommandHandlers); s != "" {
		c.Paths.CommandHandlers = s
	}
	if s := v.GetString(KeyQueryHandlers); s != "" {
		c.Paths.QueryHandlers = s
	}
	if s := v.GetString(KeyNamespace); s != "" {
		c.Discovery.Namespace = s
	}
	if s := v.GetString(KeyApplicationDir); s != "" {
		c.Discovery.ApplicationDir = s
	}
	if s := v.GetString(KeyEnv); s != "" {
		c.Env = s
	}
	return c
}

func configuredMiddleware(v *viper.Viper, key string) []string {
	raw := v.Get(key)
	names := middlewareNames(raw)
	if raw != nil && names == nil {
		xlog.Default().Warn().
			Str("key", key).
			Str("value", fmt.Sprint(raw)).
			Msg("ignoring malformed middleware list")
	}
	return names
}

// middlewareNames accepts an ordered list of non-empty names. Anything else is
// treated as no configuration.
func middlewareNames(raw any) []string {
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			if s == "" {
				return nil
			}
		}
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

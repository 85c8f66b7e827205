package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/trickstertwo/xlog"
	"github.com/trickstertwo/xlog/adapter/zerolog"

	"github.com/trickstertwo/xcqrs"
	"github.com/trickstertwo/xcqrs/adapter/filecache"
	"github.com/trickstertwo/xcqrs/adapter/rediscache"
	"github.com/trickstertwo/xcqrs/handlercache"
)

var version = "dev"

// cli is the state shared by all subcommands.
type cli struct {
	cfgFile   string
	envFile   string
	storeName string
	verbose   bool

	cfg    xcqrs.Config
	logger *xlog.Logger
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, logger: xlog.Default()}

	root := &cobra.Command{
		Use:           "xcqrs",
		Short:         "Handler map tooling for the xcqrs command and query buses",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading config")
	root.PersistentFlags().StringVarP(&c.storeName, "store", "s", filecache.StoreName, "handler map store: file or redis")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newCacheCmd(c), newListCmd(c), newClearCmd(c))
	return root
}

func (c *cli) init() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", c.envFile, err)
		}
	}

	if c.verbose {
		c.logger = zerolog.Use(zerolog.Config{
			MinLevel:          xlog.LevelDebug,
			Console:           true,
			ConsoleTimeFormat: time.RFC3339Nano,
			Caller:            true,
			CallerSkip:        5,
		})
	}

	cfg, err := xcqrs.LoadConfig(c.cfgFile)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	c.cfg = cfg
	return nil
}

// openStore builds the selected store. The returned func releases it.
func (c *cli) openStore() (handlercache.Store, func(), error) {
	switch c.storeName {
	case filecache.StoreName:
		s, err := handlercache.NewStore(filecache.StoreName, map[string]any{
			"command_handlers": c.cfg.Paths.CommandHandlers,
			"query_handlers":   c.cfg.Paths.QueryHandlers,
		})
		return s, func() {}, err
	case rediscache.StoreName:
		rc, err := rediscache.ConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		s, err := rediscache.Open(rc)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.(*rediscache.Store).Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store %q (want %s or %s)", c.storeName, filecache.StoreName, rediscache.StoreName)
	}
}

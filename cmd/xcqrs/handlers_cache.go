package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/trickstertwo/xclock"

	"github.com/trickstertwo/xcqrs/discovery"
	"github.com/trickstertwo/xcqrs/handlercache"
)

type cacheOptions struct {
	classmap string
	manifest string
	strict   bool
	watch    bool
	debounce time.Duration
}

func newCacheCmd(c *cli) *cobra.Command {
	opts := cacheOptions{}

	cmd := &cobra.Command{
		Use:   "handlers:cache",
		Short: "Discover handlers and write the command and query maps to the store",
		Example: `  xcqrs handlers:cache --classmap vendor/classmap.json --manifest handlers.yaml
  xcqrs handlers:cache --classmap vendor/classmap.json --manifest handlers.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := c.openStore()
			if err != nil {
				return err
			}
			defer release()

			if err := c.cache(cmd.Context(), store, opts); err != nil {
				return err
			}
			if !opts.watch {
				return nil
			}
			return c.watchAndCache(cmd.Context(), store, opts)
		},
	}

	cmd.Flags().StringVar(&opts.classmap, "classmap", "", "classmap JSON (type name to source path)")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "handler descriptor manifest (YAML)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when two handlers claim the same message")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "rebuild the maps when the classmap or manifest changes")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "delay between a change and the rebuild")
	_ = cmd.MarkFlagRequired("classmap")

	return cmd
}

func (c *cli) discoverer(strict bool) *discovery.Discoverer {
	opts := []discovery.Option{
		discovery.WithNamespace(c.cfg.Discovery.Namespace),
		discovery.WithApplicationDir(c.cfg.Discovery.ApplicationDir),
	}
	if strict {
		opts = append(opts, discovery.WithStrictDuplicates())
	}
	return discovery.New(opts...)
}

func (c *cli) cache(ctx context.Context, store handlercache.Store, opts cacheOptions) error {
	src := discovery.FileSource{Classmap: opts.classmap, Manifest: opts.manifest}

	// Discover swallows source errors; surface them here instead.
	entries, err := src.Entries()
	if err != nil {
		return fmt.Errorf("reading handler sources: %w", err)
	}

	clock := xclock.Default()
	start := clock.Now()
	res, err := c.discoverer(opts.strict).DiscoverStrict(discovery.Static(entries...))
	if err != nil {
		return err
	}
	if err := handlercache.Warm(ctx, store, res); err != nil {
		return err
	}

	c.logger.Debug().
		Str("store", c.storeName).
		Dur("took", clock.Since(start)).
		Msg("handler maps cached")
	fmt.Fprintf(c.out, "Cached %d command handler(s) and %d query handler(s).\n", len(res.Commands), len(res.Queries))
	return nil
}

func (c *cli) watchAndCache(ctx context.Context, store handlercache.Store, opts cacheOptions) error {
	w, err := newWatcher([]string{opts.classmap, opts.manifest}, opts.debounce, func(err error) {
		c.logger.Warn().Err(err).Msg("watch error")
	})
	if err != nil {
		return err
	}
	changes := w.Run(ctx)
	fmt.Fprintln(c.out, "Watching for changes. Press Ctrl+C to stop.")

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-changes:
			if err := c.cache(ctx, store, opts); err != nil {
				c.logger.Error().Err(err).Msg("rebuilding handler maps")
			}
		}
	}
}

package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/trickstertwo/xcqrs/handlercache"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newListCmd(c *cli) *cobra.Command {
	var (
		typ    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "handlers:list",
		Short: "Show the cached handler maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := handlercache.Types()
			if typ != "" {
				t, err := handlercache.ParseHandlerType(typ)
				if err != nil {
					return err
				}
				types = []handlercache.HandlerType{t}
			}

			store, release, err := c.openStore()
			if err != nil {
				return err
			}
			defer release()

			maps := make(map[handlercache.HandlerType]map[string]string, len(types))
			for _, t := range types {
				m, ok, err := store.Load(cmd.Context(), t)
				if err != nil {
					return err
				}
				if ok {
					maps[t] = m
				}
			}

			if asJSON {
				out, err := json.MarshalIndent(maps, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, string(out))
				return nil
			}

			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			for _, t := range types {
				m, ok := maps[t]
				if !ok {
					fmt.Fprintf(tw, "%s\t(not cached)\n", t)
					continue
				}
				fmt.Fprintf(tw, "%s\t%d\n", t, len(m))
				keys := make([]string, 0, len(m))
				for k := range m {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(tw, "  %s\t%s\n", k, m[k])
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "command-handlers or query-handlers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

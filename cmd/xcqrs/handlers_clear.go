package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trickstertwo/xcqrs/handlercache"
)

func newClearCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers:clear",
		Short: "Remove the cached handler maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := c.openStore()
			if err != nil {
				return err
			}
			defer release()

			if err := handlercache.ClearAll(cmd.Context(), store); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Handler maps cleared.")
			return nil
		},
	}
}

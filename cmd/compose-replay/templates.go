package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-compose/pkg/template"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the canonical template ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, k := range template.All() {
				fmt.Fprintf(out, "%-18s %s\n", k, k.Label())
			}
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/demo"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in demo modules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, name := range demo.Names() {
			d, err := demo.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%-10s %s\n", name, d.Synopsis)
		}
		return nil
	},
}

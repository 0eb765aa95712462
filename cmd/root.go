package main

import (
	"github.com/spf13/cobra"
)

var env string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apidoxsearch",
		Short: "Search service for generated API documentation",
		Long: `apidoxsearch serves the search pages of a generated API documentation
tree: scan search over structured corpora, full-text popover search and
class lookup.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&env, "env", "", "Config environment, reads config/config.<env>.yaml (default $ENV or local)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())

	return cmd
}

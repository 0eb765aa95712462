package main

import (
	"fmt"

	"github.com/meghashyamc/apidoxsearch/api"
	"github.com/meghashyamc/apidoxsearch/config"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var docsRoot string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			// env keys take precedence in the getters, so flags override those
			if port != "" {
				cfg.Set("PORT", port)
			}
			if docsRoot != "" {
				cfg.Set("DOCS_ROOT", docsRoot)
			}

			return api.Run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides server.port)")
	cmd.Flags().StringVar(&docsRoot, "docs-root", "", "Documentation tree to serve (overrides docs.root)")

	return cmd
}

package main

import (
	"context"

	"github.com/spf13/cobra"
)

var opsConfigPath string

// Execute builds the command tree (persistent flags + subcommands) and
// runs it, covering this service's serve/reindex/cache operations.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
 Use: "openecon",
 Short: "Natural-language economic and financial data query service",
	}
	root.PersistentFlags().StringVar(&opsConfigPath, "ops-config", "config/providers.yaml", "path to the provider-operations YAML file")

	root.AddCommand(serveCmd(ctx))
	root.AddCommand(reindexCmd(ctx))
	root.AddCommand(cacheCmd(ctx))

	return root.Execute()
}

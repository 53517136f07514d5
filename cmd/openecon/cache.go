package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cacheCmd is the parent for operator-triggered cache maintenance.
func cacheCmd(ctx context.Context) *cobra.Command {
	root := &cobra.Command{Use: "cache", Short: "Response cache maintenance"}
	root.AddCommand(cacheClearCmd(ctx))
	return root
}

func cacheClearCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
 Use: "clear",
 Short: "Empty the response cache",
 RunE: func(cmd *cobra.Command, args []string) error {
 a, err := wireApp(ctx)
 if err != nil {
 return err
 }
 defer a.idx.Close()
 defer a.orchestrator.Cache.Close()

 a.orchestrator.Cache.Clear()
 stats := a.orchestrator.Cache.Stats()
 log.Info().Interface("stats", stats).Msg("cache cleared")
 fmt.Println("cache cleared")
 return nil
 },
	}
}

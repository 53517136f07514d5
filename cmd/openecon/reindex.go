package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// reindexCmd triggers a one-off rebuild-and-swap of the indicator index,
// then publishes the new generation to the snapshot store so other
// processes can warm-start from it.
func reindexCmd(ctx context.Context) *cobra.Command {
	var sourcePath string
	cmd := &cobra.Command{
 Use: "reindex",
 Short: "Rebuild the indicator index from a fresh snapshot file and swap it in",
 RunE: func(cmd *cobra.Command, args []string) error {
 if sourcePath == "" {
 return fmt.Errorf("--source is required")
 }
 a, err := wireApp(ctx)
 if err != nil {
 return err
 }
 defer a.idx.Close()

 if err := a.idx.Reopen(sourcePath); err != nil {
 return fmt.Errorf("swapping in new index generation: %w", err)
 }
 log.Info().Int64("generation", a.idx.Generation()).Msg("index reindexed")

 if a.cfg.Snapshot.Enabled() {
 if err := a.snapshots.UploadFile(ctx, "index.sqlite", sourcePath); err != nil {
 return fmt.Errorf("publishing index snapshot: %w", err)
 }
 log.Info().Msg("index snapshot published")
 }
 return nil
 },
	}
	cmd.Flags().StringVar(&sourcePath, "source", "", "path to the freshly-built index SQLite file")
	return cmd
}

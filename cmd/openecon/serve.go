package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hanlulong/openecon-data-sub002/internal/httpapi"
)

// serveCmd runs the HTTP API, the cache sweep loop (started inside
// cache.New), and the scheduled index-rebuild check.
func serveCmd(ctx context.Context) *cobra.Command {
	var port int
	cmd := &cobra.Command{
 Use: "serve",
 Short: "Run the query API server",
 RunE: func(cmd *cobra.Command, args []string) error {
 a, err := wireApp(ctx)
 if err != nil {
 return err
 }
 defer a.idx.Close()
 defer a.orchestrator.Cache.Close()

 httpCfg := httpapi.DefaultConfig()
 if port > 0 {
 httpCfg.Port = port
 } else {
 httpCfg.Port = a.cfg.HTTPPort
 }
 httpCfg.Host = a.cfg.HTTPHost

 server, err := httpapi.NewServer(httpCfg, httpapi.Deps{
 Orchestrator: a.orchestrator,
 ProvidersConfigured: a.cfg.ConfiguredProviders(),
 })
 if err != nil {
 return fmt.Errorf("building http server: %w", err)
 }

 sched := startRebuildScheduler(a)
 defer sched.Stop()

 go func() {
 <-ctx.Done()
 shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
 defer cancel()
 _ = server.Shutdown(shutdownCtx)
 }()

 log.Info().Int("port", httpCfg.Port).Msg("openecon serve starting")
 if err := server.Start(); err != nil {
 return fmt.Errorf("http server: %w", err)
 }
 return nil
 },
	}
	cmd.Flags().IntVar(&port, "port", 0, "override HTTP_PORT")
	return cmd
}

// startRebuildScheduler wires robfig/cron to periodically swap in a newer
// index snapshot generation if one has been published, without an
// external supervisor.
func startRebuildScheduler(a *app) *cron.Cron {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(a.cfg.IndexRebuildCron, func() {
 ctx := context.Background()
 if !a.snapshots.Exists(ctx, "index.sqlite") {
 return
 }
 tmpPath := a.cfg.IndexPath + ".incoming"
 if err := a.snapshots.DownloadFile(ctx, "index.sqlite", tmpPath); err != nil {
 log.Warn().Err(err).Msg("index rebuild check: download failed")
 return
 }
 if err := a.idx.Reopen(tmpPath); err != nil {
 log.Warn().Err(err).Msg("index rebuild check: reopen failed")
 return
 }
 log.Info().Int64("generation", a.idx.Generation()).Msg("index snapshot swapped in")
	})
	if err != nil {
 log.Warn().Err(err).Msg("failed to schedule index rebuild check")
	}
	c.Start()
	return c
}

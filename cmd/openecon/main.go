// Command openecon runs the natural-language economic-data query service:
// an HTTP API backed by the parse -> route -> fetch -> normalize pipeline
// in internal/orchestrator, with zerolog structured logging and signal-based
// graceful shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Execute(ctx); err != nil {
 log.Fatal().Err(err).Msg("openecon exited with error")
	}
}

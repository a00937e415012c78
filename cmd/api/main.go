package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/Slidewise/internal/app"
	"github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	lg := logger.New(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)

	// Handle SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("startup failed")
	}
	defer application.Close()

	lg.Info().Str("version", cfg.Version).Msg("Slidewise is running")
	if err := application.Run(ctx); err != nil {
		lg.Error().Err(err).Msg("server stopped")
		return
	}
	lg.Info().Msg("shutdown complete")
}

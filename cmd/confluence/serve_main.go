package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/confluence/internal/config"
	httpops "github.com/sawpanic/confluence/internal/interfaces/http"
)

// runServe rescans the snapshot file on the configured interval. The
// snapshot is re-read each tick so the external feature pipeline can
// refresh it between cycles.
func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	inputPath, _ := cmd.Flags().GetString("input")

	if inputPath == "" {
		return fmt.Errorf("--input is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	application, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opsServer *httpops.Server
	if cfg.HTTP.Enabled {
		opsServer = httpops.NewServer(httpops.ServerConfig{
			Host: cfg.HTTP.Host,
			Port: cfg.HTTP.Port,
		}, application.metrics)
		go func() {
			if err := opsServer.Start(); err != nil {
				log.Error().Err(err).Msg("ops server stopped")
			}
		}()
	}

	interval := time.Duration(cfg.Scan.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	log.Info().Dur("interval", interval).Str("input", inputPath).Msg("scheduled scanning started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce := func() {
		input, err := loadSnapshot(inputPath)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot unavailable, skipping cycle")
			return
		}
		result, err := application.runner.RunCycle(ctx, input)
		if err != nil {
			log.Warn().Err(err).Msg("scan cycle failed")
			return
		}
		application.dispatcher.Dispatch(ctx, result.Events)
	}

	runOnce()
	for {
		select {
		case <-ticker.C:
			runOnce()
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			if opsServer != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := opsServer.Shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("ops server shutdown failed")
				}
			}
			return nil
		}
	}
}

package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "confluence"
	version = "v0.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Confluence scoring and alert engine",
		Version: version,
		Long: `Confluence ingests per-symbol feature snapshots, derives regime-aware
confluence scores and turns them into de-duplicated alerts.`,
	}
	rootCmd.PersistentFlags().String("config", "config/confluence.yaml", "Path to YAML configuration")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan cycle from a feature snapshot",
		Long:  "Scores every symbol in the snapshot file, evaluates alerts and dispatches them",
		RunE:  runScan,
	}
	scanCmd.Flags().String("input", "", "Feature snapshot JSON file (required)")
	scanCmd.Flags().Bool("dry-run", false, "Evaluate alerts without dispatching notifications")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled scan cycles plus the ops HTTP server",
		Long:  "Rescans the snapshot file on the configured interval and exposes /health and /metrics",
		RunE:  runServe,
	}
	serveCmd.Flags().String("input", "", "Feature snapshot JSON file (required)")

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Alert state inspection commands",
	}
	stateDumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Pretty-print the persisted alert state file",
		Long:  "Dumps every (symbol, timeframe, alert_type) record for dedupe debugging",
		RunE:  runStateDump,
	}
	stateCmd.AddCommand(stateDumpCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

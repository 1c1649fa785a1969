package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/confluence/internal/config"
	"github.com/sawpanic/confluence/internal/pipeline"
)

func runScan(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	inputPath, _ := cmd.Flags().GetString("input")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

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

	input, err := loadSnapshot(inputPath)
	if err != nil {
		return err
	}

	result, err := application.runner.RunCycle(cmd.Context(), input)
	if err != nil {
		return err
	}

	log.Info().
		Str("regime", result.Regime.Regime.String()).
		Int("symbols", len(result.Bundles)).
		Int("alerts", len(result.Events)).
		Int("suppressed_cooldown", result.Stats.SuppressedCooldown).
		Int("suppressed_delta", result.Stats.SuppressedDelta).
		Dur("elapsed", result.Elapsed).
		Msg("scan cycle complete")

	if dryRun {
		log.Info().Msg("dry run: skipping notification dispatch")
		return nil
	}

	application.dispatcher.Dispatch(cmd.Context(), result.Events)
	return nil
}

// loadSnapshot reads the feature snapshot the external feature-extraction
// collaborator produced for this cycle.
func loadSnapshot(path string) (pipeline.CycleInput, error) {
	var input pipeline.CycleInput

	data, err := os.ReadFile(path)
	if err != nil {
		return input, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	if len(input.Symbols) == 0 {
		log.Warn().Str("path", path).Msg("snapshot contains no symbols")
	}
	return input, nil
}

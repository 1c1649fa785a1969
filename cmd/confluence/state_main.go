package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/confluence/internal/alerts/state"
	"github.com/sawpanic/confluence/internal/config"
)

// runStateDump prints every persisted alert state record. Only the file
// backend is inspectable offline; redis/postgres are queried with their
// own tooling.
func runStateDump(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Alerts.StateBackend != "file" {
		return fmt.Errorf("state dump supports the file backend only, configured backend is %q", cfg.Alerts.StateBackend)
	}

	data, err := os.ReadFile(cfg.Alerts.StateFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no alert state recorded yet")
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var entries map[string]state.AlertState
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("state file is corrupt: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLAST FIRED\tLAST SCORE\tLAST REGIME\tSUPPRESSED")
	for _, k := range keys {
		st := entries[k]
		fired := "-"
		if !st.LastFired.IsZero() {
			fired = st.LastFired.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%d\n", k, fired, st.LastScore, st.LastRegime, st.SuppressionCount)
	}
	return w.Flush()
}

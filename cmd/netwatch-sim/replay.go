package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"netwatch-sim/internal/config"
	"netwatch-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayOutput    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded network update log",
	Long:  "replay feeds network_update lines from a JSONL recording back into GreptimeDB, STDOUT or the TUI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg := config.Default()
		writer, cleanup, err := newWriters(cfg, envOr("CLUSTER_ID", cfg.ClusterID), replayOutput, replayPrintOnly, "")
		if err != nil {
			return err
		}
		defer cleanup()
		return sim.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to network update log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print nodes to STDOUT instead of writing to GreptimeDB")
	replayCmd.Flags().StringVar(&replayOutput, "output", outputJSON, "Local output: json, color or tui")
	replayCmd.MarkFlagRequired("input")
}

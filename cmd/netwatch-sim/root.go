package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"netwatch-sim/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "netwatch-sim",
	Short: "Network monitoring simulation backend",
	Long:  "netwatch-sim simulates a fleet of network nodes, raises alerts and serves them over HTTP and WebSocket.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		l := logging.New(logLevel)
		slog.SetDefault(l)
		cmd.SetContext(logging.NewContext(cmd.Context(), l))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package main

import (
	"github.com/spf13/cobra"

	"netwatch-sim/internal/dashboard"
	"netwatch-sim/internal/sim"
	"netwatch-sim/internal/telemetry"
)

var dashboardOut string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the GreptimeDB tables",
	Long:  "dashboard renders Grafana dashboard JSON using GREPTIMEDB_DATASOURCE_UID as the datasource.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboard.Render(dashboardOut, dashboard.Tables{
			Nodes:  telemetry.NodeTableName,
			Alerts: sim.AlertTableName,
			State:  sim.StateTableName,
		})
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Output directory")
}

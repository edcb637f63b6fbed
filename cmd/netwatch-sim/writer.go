package main

import (
	"fmt"
	"os"

	"netwatch-sim/internal/config"
	"netwatch-sim/internal/sim"
)

// Output modes for the local display writer.
const (
	outputJSON  = "json"
	outputColor = "color"
	outputTUI   = "tui"
)

// newWriters sets up the secondary sinks based on flags and env vars. It
// returns the writer and a cleanup function that closes any resources.
func newWriters(cfg *config.SimulationConfig, clusterID, output string, printOnly bool, logFile string) (sim.TelemetryWriter, func(), error) {
	base, closeBase, err := baseWriter(cfg, clusterID, output, printOnly)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" {
		return base, closeBase, nil
	}

	fw, err := sim.NewFileWriter(logFile, logFile+".alerts", logFile+".state")
	if err != nil {
		closeBase()
		return nil, nil, err
	}
	tws := []sim.TelemetryWriter{base, fw}
	aws := []sim.AlertWriter{fw}
	sws := []sim.StateWriter{fw}
	if aw, ok := base.(sim.AlertWriter); ok {
		aws = append([]sim.AlertWriter{aw}, aws...)
	}
	if sw, ok := base.(sim.StateWriter); ok {
		sws = append([]sim.StateWriter{sw}, sws...)
	}
	cleanup := func() {
		fw.Close()
		closeBase()
	}
	return sim.NewMultiWriter(tws, aws, sws), cleanup, nil
}

// baseWriter chooses the primary sink: the TUI when requested, GreptimeDB
// when an endpoint is configured, STDOUT otherwise.
func baseWriter(cfg *config.SimulationConfig, clusterID, output string, printOnly bool) (sim.TelemetryWriter, func(), error) {
	switch output {
	case "", outputJSON, outputColor, outputTUI:
	default:
		return nil, nil, fmt.Errorf("unknown output %q (want json, color or tui)", output)
	}
	if output == outputTUI {
		w := sim.NewTUIWriter(cfg)
		return w, func() { w.Close() }, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if printOnly || endpoint == "" {
		return sim.NewStdoutWriter(cfg, output == outputColor), func() {}, nil
	}
	w, err := sim.NewGreptimeDBWriter(endpoint, envOr("GREPTIMEDB_DATABASE", "public"), clusterID)
	if err != nil {
		return nil, nil, fmt.Errorf("greptimedb writer: %w", err)
	}
	return w, func() {}, nil
}

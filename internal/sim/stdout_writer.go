// Writer implementation printing telemetry to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"netwatch-sim/internal/config"
	"netwatch-sim/internal/telemetry"
)

// StdoutWriter prints node, alert and state rows to STDOUT, either as JSON
// lines or, when colorize is set, as ANSI-colored text.
type StdoutWriter struct {
	cfg            *config.SimulationConfig
	out            io.Writer
	colorize       bool
	once           sync.Once
	categoryColors map[telemetry.Category]string
	colorIdx       int
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter(cfg *config.SimulationConfig, colorize bool) *StdoutWriter {
	return &StdoutWriter{
		cfg:            cfg,
		out:            os.Stdout,
		colorize:       colorize,
		categoryColors: make(map[telemetry.Category]string),
	}
}

func (w *StdoutWriter) printJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs a single node row.
func (w *StdoutWriter) Write(row telemetry.Node) error {
	if w.colorize {
		return w.writeColorNode(row)
	}
	return w.printJSON(row)
}

// WriteBatch outputs multiple node rows.
func (w *StdoutWriter) WriteBatch(rows []telemetry.Node) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAlert prints an alert.
func (w *StdoutWriter) WriteAlert(a telemetry.Alert) error {
	if w.colorize {
		return w.writeColorAlert(a)
	}
	return w.printJSON(a)
}

// WriteState prints simulation state metrics.
func (w *StdoutWriter) WriteState(row telemetry.SimulationStateRow) error {
	if w.colorize {
		return w.writeColorState(row)
	}
	return w.printJSON(row)
}

package sim

import (
	"encoding/json"
	"os"
	"time"

	"netwatch-sim/internal/telemetry"
)

// FileWriter records network updates, alerts and state rows to JSONL files.
// Each node batch becomes one network_update line, so a recording can be
// fed back through ReplayLog.
type FileWriter struct {
	updateFile *os.File
	alertFile  *os.File
	stateFile  *os.File
	updateEnc  *json.Encoder
	alertEnc   *json.Encoder
	stateEnc   *json.Encoder
}

// NewFileWriter creates a FileWriter. alertPath or statePath may be empty to skip those logs.
func NewFileWriter(updatePath, alertPath, statePath string) (*FileWriter, error) {
	uf, err := os.Create(updatePath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{updateFile: uf, updateEnc: json.NewEncoder(uf)}
	if alertPath != "" {
		af, err := os.Create(alertPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.alertFile = af
		fw.alertEnc = json.NewEncoder(af)
	}
	if statePath != "" {
		sf, err := os.Create(statePath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.stateFile = sf
		fw.stateEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// Write logs a single node as a one-node update.
func (f *FileWriter) Write(node telemetry.Node) error {
	return f.WriteBatch([]telemetry.Node{node})
}

// WriteBatch logs one network_update line for the batch, stamped with the
// newest last_seen among the nodes.
func (f *FileWriter) WriteBatch(nodes []telemetry.Node) error {
	return f.updateEnc.Encode(telemetry.NewNetworkUpdate(nodes, batchTime(nodes)))
}

// WriteAlert logs a single alert, if enabled.
func (f *FileWriter) WriteAlert(a telemetry.Alert) error {
	if f.alertEnc == nil {
		return nil
	}
	return f.alertEnc.Encode(a)
}

// WriteAlerts logs multiple alerts.
func (f *FileWriter) WriteAlerts(alerts []telemetry.Alert) error {
	for _, a := range alerts {
		if err := f.WriteAlert(a); err != nil {
			return err
		}
	}
	return nil
}

// WriteState logs a simulation state row, if enabled.
func (f *FileWriter) WriteState(row telemetry.SimulationStateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.updateFile, f.alertFile, f.stateFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func batchTime(nodes []telemetry.Node) time.Time {
	var ts time.Time
	for _, n := range nodes {
		if n.LastSeen.After(ts) {
			ts = n.LastSeen
		}
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts
}

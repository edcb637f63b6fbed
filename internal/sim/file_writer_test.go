package sim

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"netwatch-sim/internal/telemetry"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	node := sampleNode("1", ts)
	aRow := telemetry.Alert{ID: "a1", NodeID: "1", Type: telemetry.AlertSecurity, Severity: telemetry.SeverityMedium, Message: "Suspicious activity detected on Node 1", Timestamp: ts}
	stRow := telemetry.SimulationStateRow{ClusterID: "c1", Tick: 4, Critical: 2, Timestamp: ts}

	cases := []struct {
		name   string
		path   string
		write  func(*FileWriter) error
		decode func([]byte)
	}{
		{
			name:  "update",
			path:  filepath.Join(dir, "updates.jsonl"),
			write: func(fw *FileWriter) error { return fw.Write(node) },
			decode: func(b []byte) {
				if err := telemetry.ValidateUpdate(b); err != nil {
					t.Fatalf("invalid update: %v", err)
				}
				var got telemetry.NetworkUpdate
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode update: %v", err)
				}
				if len(got.Nodes) != 1 || got.Nodes[0].CPU != node.CPU || !got.Timestamp.Equal(ts) {
					t.Fatalf("unexpected update: %#v", got)
				}
			},
		},
		{
			name:  "alert",
			path:  filepath.Join(dir, "alerts.jsonl"),
			write: func(fw *FileWriter) error { return fw.WriteAlerts([]telemetry.Alert{aRow}) },
			decode: func(b []byte) {
				var got telemetry.Alert
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode alert: %v", err)
				}
				if got.ID != aRow.ID || got.Type != aRow.Type {
					t.Fatalf("unexpected alert: %#v", got)
				}
			},
		},
		{
			name:  "state",
			path:  filepath.Join(dir, "state.jsonl"),
			write: func(fw *FileWriter) error { return fw.WriteState(stRow) },
			decode: func(b []byte) {
				var got telemetry.SimulationStateRow
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode state: %v", err)
				}
				if got.Tick != stRow.Tick || got.Critical != stRow.Critical {
					t.Fatalf("unexpected state: %#v", got)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			updates := filepath.Join(dir, tc.name+"_updates.jsonl")
			var alerts, state string
			switch tc.name {
			case "update":
				updates = tc.path
			case "alert":
				alerts = tc.path
			case "state":
				state = tc.path
			}
			fw, err := NewFileWriter(updates, alerts, state)
			if err != nil {
				t.Fatalf("NewFileWriter: %v", err)
			}
			if err := tc.write(fw); err != nil {
				t.Fatalf("write: %v", err)
			}
			fw.Close()
			data, err := os.ReadFile(tc.path)
			if err != nil {
				t.Fatalf("read file: %v", err)
			}
			tc.decode(data)
		})
	}
}

func TestFileWriterSkipsDisabledLogs(t *testing.T) {
	fw, err := NewFileWriter(filepath.Join(t.TempDir(), "u.jsonl"), "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteAlert(telemetry.Alert{ID: "a"}); err != nil {
		t.Fatalf("disabled alert log should be a no-op: %v", err)
	}
	if err := fw.WriteState(telemetry.SimulationStateRow{}); err != nil {
		t.Fatalf("disabled state log should be a no-op: %v", err)
	}
}

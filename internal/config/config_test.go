package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"netwatch-sim/internal/telemetry"
)

const schemaPath = "../../schemas/simulation.cue"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulation.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
cluster_id: lab
tick_interval: 500ms
nodes:
  - name: edge
    type: router
    ip: 10.0.0.1
    location: { x: 1, y: 2 }
  - name: db
    type: server
    ip: 10.0.0.2
incident_rate: 0.5
`)
	cfg, err := Load(path, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ClusterID != "lab" || cfg.TickInterval != 500*time.Millisecond {
		t.Errorf("unexpected header: %+v", cfg)
	}
	if len(cfg.Nodes) != 2 || cfg.Nodes[0].Location.Y != 2 {
		t.Errorf("unexpected nodes: %+v", cfg.Nodes)
	}
	if cfg.IncidentRate != 0.5 {
		t.Errorf("incident_rate=%v", cfg.IncidentRate)
	}
	// Unset keys keep their defaults.
	if cfg.OfflineRate != 0.02 || cfg.ErrorBackoff != 5*time.Second || len(cfg.Incidents) != 4 {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadRepoConfig(t *testing.T) {
	cfg, err := Load("../../config/simulation.yaml", schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Nodes) != 10 {
		t.Fatalf("expected 10 nodes, got %d", len(cfg.Nodes))
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Nodes) != 10 || cfg.TickInterval != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateWithCue_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown type": `
nodes:
  - name: x
    type: mainframe
    ip: 10.0.0.1
`,
		"rate above one": `incident_rate: 1.5`,
		"unknown field":  `fleets: []`,
		"bad ip": `
nodes:
  - name: x
    type: server
    ip: not-an-ip
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if err := ValidateWithCue(writeConfig(t, body), schemaPath); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateDuplicateIP(t *testing.T) {
	cfg := Default()
	cfg.Nodes = append(cfg.Nodes, NodeSeed{Name: "Shadow", Type: telemetry.CategoryServer, IP: "192.168.1.1"})
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("expected duplicate ip error, got %v", err)
	}
}

func TestProfileMirrorsConfig(t *testing.T) {
	cfg := Default()
	cfg.SecurityRate = 0.5
	p := cfg.Profile()
	if p.SecurityRate != 0.5 || p.IncidentRate != cfg.IncidentRate || len(p.Incidents) != len(cfg.Incidents) {
		t.Fatalf("profile mismatch: %+v", p)
	}
}

// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"netwatch-sim/internal/telemetry"

	"gopkg.in/yaml.v3"
)

// NodeSeed describes one node created at every simulation start.
type NodeSeed struct {
	Name     string             `yaml:"name"`
	Type     telemetry.Category `yaml:"type"`
	IP       string             `yaml:"ip"`
	Location telemetry.Location `yaml:"location"`
}

// SimulationConfig is the root configuration for the node fleet and its tuning.
type SimulationConfig struct {
	ClusterID    string                  `yaml:"cluster_id"`
	TickInterval time.Duration           `yaml:"tick_interval"`
	ErrorBackoff time.Duration           `yaml:"error_backoff"`
	Seed         int64                   `yaml:"seed"`
	Nodes        []NodeSeed              `yaml:"nodes"`
	Initial      telemetry.InitialRanges `yaml:"initial"`
	IncidentRate float64                 `yaml:"incident_rate"`
	Incidents    []telemetry.Incident    `yaml:"incidents"`
	OfflineRate  float64                 `yaml:"offline_rate"`
	SecurityRate float64                 `yaml:"security_rate"`
}

// DefaultNodes is the stock ten-node demo network.
func DefaultNodes() []NodeSeed {
	return []NodeSeed{
		{Name: "Core Router", Type: telemetry.CategoryRouter, IP: "192.168.1.1", Location: telemetry.Location{X: 400, Y: 200}},
		{Name: "Web Server 1", Type: telemetry.CategoryServer, IP: "192.168.1.10", Location: telemetry.Location{X: 200, Y: 100}},
		{Name: "Web Server 2", Type: telemetry.CategoryServer, IP: "192.168.1.11", Location: telemetry.Location{X: 600, Y: 100}},
		{Name: "Database Server", Type: telemetry.CategoryServer, IP: "192.168.1.20", Location: telemetry.Location{X: 400, Y: 50}},
		{Name: "Load Balancer", Type: telemetry.CategoryServer, IP: "192.168.1.5", Location: telemetry.Location{X: 400, Y: 150}},
		{Name: "Switch 1", Type: telemetry.CategorySwitch, IP: "192.168.1.2", Location: telemetry.Location{X: 200, Y: 250}},
		{Name: "Switch 2", Type: telemetry.CategorySwitch, IP: "192.168.1.3", Location: telemetry.Location{X: 600, Y: 250}},
		{Name: "Workstation 1", Type: telemetry.CategoryWorkstation, IP: "192.168.1.50", Location: telemetry.Location{X: 100, Y: 300}},
		{Name: "Workstation 2", Type: telemetry.CategoryWorkstation, IP: "192.168.1.51", Location: telemetry.Location{X: 300, Y: 300}},
		{Name: "Firewall", Type: telemetry.CategorySecurityAppliance, IP: "192.168.1.254", Location: telemetry.Location{X: 400, Y: 350}},
	}
}

// Default returns the built-in configuration used when no file is given.
func Default() *SimulationConfig {
	p := telemetry.DefaultProfile()
	return &SimulationConfig{
		ClusterID:    "netwatch",
		TickInterval: 2 * time.Second,
		ErrorBackoff: 5 * time.Second,
		Nodes:        DefaultNodes(),
		Initial:      p.Initial,
		IncidentRate: p.IncidentRate,
		Incidents:    p.Incidents,
		OfflineRate:  p.OfflineRate,
		SecurityRate: p.SecurityRate,
	}
}

// Load reads a YAML config on top of the defaults. The file is validated
// against the CUE schema first when cueSchemaPath is set. An empty
// configPath yields Default().
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Profile converts the tuning knobs into a generator profile.
func (c *SimulationConfig) Profile() telemetry.Profile {
	return telemetry.Profile{
		Initial:      c.Initial,
		IncidentRate: c.IncidentRate,
		Incidents:    c.Incidents,
		OfflineRate:  c.OfflineRate,
		SecurityRate: c.SecurityRate,
	}
}

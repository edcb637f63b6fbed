// Network node, alert and chat records shared by the simulator, store and API.
package telemetry

import (
	"os"
	"time"
)

// Status is the health state of a node.
type Status string

// Node status constants.
const (
	StatusOnline   Status = "online"
	StatusOffline  Status = "offline"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Category classifies a node.
type Category string

// Node categories.
const (
	CategoryServer            Category = "server"
	CategoryRouter            Category = "router"
	CategorySwitch            Category = "switch"
	CategoryWorkstation       Category = "workstation"
	CategorySecurityAppliance Category = "security-appliance"
)

// Categories lists every valid node category.
var Categories = []Category{
	CategoryServer,
	CategoryRouter,
	CategorySwitch,
	CategoryWorkstation,
	CategorySecurityAppliance,
}

// Location holds 2D layout coordinates. The simulator never interprets them.
type Location struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeMetrics are the four synthetic health gauges of a node.
type NodeMetrics struct {
	CPU     float64 `json:"cpu_usage"`
	Memory  float64 `json:"memory_usage"`
	Disk    float64 `json:"disk_usage"`
	Latency float64 `json:"network_latency"` // milliseconds
}

// Node holds runtime state for a simulated network node.
type Node struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      Category `json:"type"`
	IPAddress string   `json:"ip_address"`
	Status    Status   `json:"status"`
	NodeMetrics
	LastSeen time.Time `json:"last_seen"`
	Location Location  `json:"location"`
}

// NodeTableName holds the table name used when writing node rows to GreptimeDB.
// It defaults to "node_metrics" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var NodeTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "node_metrics"
}()

func (Node) TableName() string {
	return NodeTableName
}

// AlertType is the category of an alert.
type AlertType string

// Alert types.
const (
	AlertConnectivity AlertType = "connectivity"
	AlertPerformance  AlertType = "performance"
	AlertSecurity     AlertType = "security"
)

// Severity ranks an alert.
type Severity string

// Alert severities.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is raised when a node crosses a threshold on a tick. Only Resolved
// changes after creation.
type Alert struct {
	ID         string    `json:"id"`
	NodeID     string    `json:"node_id"`
	Type       AlertType `json:"alert_type"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Resolved   bool      `json:"resolved"`
	AIAnalysis *string   `json:"ai_analysis"`
}

// ChatExchange is one diagnosis query and the model's answer.
type ChatExchange struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

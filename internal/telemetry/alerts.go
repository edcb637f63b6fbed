package telemetry

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Status thresholds, evaluated critical first.
const (
	criticalCPU    = 90.0
	criticalMemory = 95.0
	criticalDisk   = 95.0
	warningCPU     = 70.0
	warningMemory  = 80.0
	warningDisk    = 80.0
)

// Alert thresholds. CPU escalates medium to high, memory high to critical.
const (
	cpuAlert         = 85.0
	cpuAlertHigh     = 95.0
	memoryAlert      = 90.0
	memoryAlertCrit  = 98.0
	latencyAlertMS   = 100.0
	securitySeverity = SeverityMedium
)

// Deriver decides a node's status and the alerts raised on a tick.
// It shares the simulation loop's random source and is not safe for
// concurrent use.
type Deriver struct {
	rand    *rand.Rand
	profile Profile
	now     func() time.Time
	newID   func() string
}

// NewDeriver creates a deriver drawing from rng. now may be nil.
func NewDeriver(rng *rand.Rand, profile Profile, now func() time.Time) *Deriver {
	if now == nil {
		now = time.Now
	}
	return &Deriver{rand: rng, profile: profile, now: now, newID: uuid.NewString}
}

// Derive returns the node's new status and any new alerts. Alerts are never
// deduplicated against earlier ones: every breaching tick yields a record.
func (d *Deriver) Derive(node Node) (Status, []Alert) {
	status := d.status(node.NodeMetrics)

	var alerts []Alert
	raise := func(t AlertType, sev Severity, msg string) {
		alerts = append(alerts, Alert{
			ID:        d.newID(),
			NodeID:    node.ID,
			Type:      t,
			Severity:  sev,
			Message:   msg,
			Timestamp: d.now().UTC(),
		})
	}

	if node.CPU > cpuAlert {
		sev := SeverityMedium
		if node.CPU > cpuAlertHigh {
			sev = SeverityHigh
		}
		raise(AlertPerformance, sev, fmt.Sprintf("High CPU usage on %s: %.1f%%", node.Name, node.CPU))
	}
	if node.Memory > memoryAlert {
		sev := SeverityHigh
		if node.Memory > memoryAlertCrit {
			sev = SeverityCritical
		}
		raise(AlertPerformance, sev, fmt.Sprintf("High memory usage on %s: %.1f%%", node.Name, node.Memory))
	}
	if node.Latency > latencyAlertMS {
		raise(AlertConnectivity, SeverityHigh, fmt.Sprintf("High network latency on %s: %.1fms", node.Name, node.Latency))
	}
	if status == StatusOffline {
		raise(AlertConnectivity, SeverityCritical, fmt.Sprintf("Node %s is offline", node.Name))
	}
	if securityEligible(node.Type) && d.rand.Float64() < d.profile.SecurityRate {
		raise(AlertSecurity, securitySeverity, fmt.Sprintf("Suspicious activity detected on %s", node.Name))
	}
	return status, alerts
}

func (d *Deriver) status(m NodeMetrics) Status {
	switch {
	case m.CPU > criticalCPU || m.Memory > criticalMemory || m.Disk > criticalDisk:
		return StatusCritical
	case m.CPU > warningCPU || m.Memory > warningMemory || m.Disk > warningDisk:
		return StatusWarning
	case d.rand.Float64() < d.profile.OfflineRate:
		return StatusOffline
	default:
		return StatusOnline
	}
}

func securityEligible(c Category) bool {
	return c == CategoryServer || c == CategorySecurityAppliance
}

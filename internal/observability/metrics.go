// Prometheus metrics for the simulation loop, broadcast hub and API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "netwatch"

// Tick results.
const (
	TickOK    = "ok"
	TickError = "error"
)

// Metrics groups every collector the service exports. All methods are safe
// on a nil receiver so components can run without instrumentation.
type Metrics struct {
	TicksTotal        *prometheus.CounterVec
	TickDuration      prometheus.Histogram
	AlertsRaisedTotal *prometheus.CounterVec
	BroadcastFailures prometheus.Counter
	Viewers           prometheus.Gauge
	SimulationRunning prometheus.Gauge
	DiagnosisRequests *prometheus.CounterVec
	NodesByStatus     *prometheus.GaugeVec
	SinkWriteFailures *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TicksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulation",
			Name:      "ticks_total",
			Help:      "Simulation ticks by result",
		}, []string{"result"}),
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulation",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent in one simulation tick",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		AlertsRaisedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulation",
			Name:      "alerts_raised_total",
			Help:      "Alerts raised by type and severity",
		}, []string{"type", "severity"}),
		BroadcastFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "hub",
			Name:      "broadcast_failures_total",
			Help:      "Per-viewer delivery failures",
		}),
		Viewers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "hub",
			Name:      "viewers",
			Help:      "Currently registered viewers",
		}),
		SimulationRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulation",
			Name:      "running",
			Help:      "1 while the simulation loop is running",
		}),
		DiagnosisRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "api",
			Name:      "diagnosis_requests_total",
			Help:      "Diagnosis requests by outcome",
		}, []string{"status"}),
		NodesByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulation",
			Name:      "nodes",
			Help:      "Nodes by status after the last tick",
		}, []string{"status"}),
		SinkWriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "simulation",
			Name:      "sink_write_failures_total",
			Help:      "Secondary sink write failures by record kind",
		}, []string{"kind"}),
	}
}

// ObserveTick records one tick outcome and its duration.
func (m *Metrics) ObserveTick(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := TickOK
	if err != nil {
		result = TickError
	}
	m.TicksTotal.WithLabelValues(result).Inc()
	m.TickDuration.Observe(d.Seconds())
}

// AlertRaised counts one alert.
func (m *Metrics) AlertRaised(alertType, severity string) {
	if m == nil {
		return
	}
	m.AlertsRaisedTotal.WithLabelValues(alertType, severity).Inc()
}

// BroadcastFailed counts failed deliveries.
func (m *Metrics) BroadcastFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BroadcastFailures.Add(float64(n))
}

// SetViewers publishes the current viewer count.
func (m *Metrics) SetViewers(n int) {
	if m == nil {
		return
	}
	m.Viewers.Set(float64(n))
}

// SetRunning flips the running gauge.
func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.SimulationRunning.Set(1)
		return
	}
	m.SimulationRunning.Set(0)
}

// DiagnosisRequest counts one diagnosis outcome (ok, error, rejected, limited).
func (m *Metrics) DiagnosisRequest(status string) {
	if m == nil {
		return
	}
	m.DiagnosisRequests.WithLabelValues(status).Inc()
}

// SetNodeStatus publishes per-status node counts.
func (m *Metrics) SetNodeStatus(counts map[string]int) {
	if m == nil {
		return
	}
	for status, n := range counts {
		m.NodesByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// SinkFailed counts a failed secondary sink write.
func (m *Metrics) SinkFailed(kind string) {
	if m == nil {
		return
	}
	m.SinkWriteFailures.WithLabelValues(kind).Inc()
}

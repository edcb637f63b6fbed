package observability

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(prometheus.NewRegistry())
}

func TestObserveTick(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveTick(nil, time.Millisecond)
	m.ObserveTick(nil, time.Millisecond)
	m.ObserveTick(errors.New("boom"), time.Millisecond)

	if v := testutil.ToFloat64(m.TicksTotal.WithLabelValues(TickOK)); v != 2 {
		t.Errorf("ticks_total[ok] = %f, want 2", v)
	}
	if v := testutil.ToFloat64(m.TicksTotal.WithLabelValues(TickError)); v != 1 {
		t.Errorf("ticks_total[error] = %f, want 1", v)
	}
}

func TestGaugesAndCounters(t *testing.T) {
	m := newTestMetrics(t)
	m.SetViewers(3)
	m.SetRunning(true)
	m.BroadcastFailed(2)
	m.BroadcastFailed(0)
	m.AlertRaised("performance", "high")
	m.DiagnosisRequest("ok")
	m.SetNodeStatus(map[string]int{"online": 7, "critical": 3})
	m.SinkFailed("node")

	if v := testutil.ToFloat64(m.Viewers); v != 3 {
		t.Errorf("viewers = %f, want 3", v)
	}
	if v := testutil.ToFloat64(m.SimulationRunning); v != 1 {
		t.Errorf("running = %f, want 1", v)
	}
	if v := testutil.ToFloat64(m.BroadcastFailures); v != 2 {
		t.Errorf("broadcast failures = %f, want 2", v)
	}
	if v := testutil.ToFloat64(m.AlertsRaisedTotal.WithLabelValues("performance", "high")); v != 1 {
		t.Errorf("alerts = %f, want 1", v)
	}
	if v := testutil.ToFloat64(m.NodesByStatus.WithLabelValues("critical")); v != 3 {
		t.Errorf("critical nodes = %f, want 3", v)
	}
	if v := testutil.ToFloat64(m.SinkWriteFailures.WithLabelValues("node")); v != 1 {
		t.Errorf("sink failures = %f, want 1", v)
	}
	m.SetRunning(false)
	if v := testutil.ToFloat64(m.SimulationRunning); v != 0 {
		t.Errorf("running = %f, want 0", v)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTick(nil, time.Second)
	m.SetViewers(1)
	m.SetRunning(true)
	m.BroadcastFailed(1)
	m.AlertRaised("security", "medium")
	m.DiagnosisRequest("error")
	m.SetNodeStatus(map[string]int{"online": 1})
	m.SinkFailed("alert")
}

func TestExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SetViewers(1)
	expected := `
# HELP netwatch_hub_viewers Currently registered viewers
# TYPE netwatch_hub_viewers gauge
netwatch_hub_viewers 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "netwatch_hub_viewers"); err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}
}

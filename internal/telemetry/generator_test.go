package telemetry

import (
	"math/rand"
	"testing"
)

func checkBounds(t *testing.T, m NodeMetrics) {
	t.Helper()
	for name, v := range map[string]float64{"cpu": m.CPU, "memory": m.Memory, "disk": m.Disk} {
		if v < 0 || v > 100 {
			t.Fatalf("%s out of bounds: %f", name, v)
		}
	}
	if m.Latency < minLatency {
		t.Fatalf("latency below floor: %f", m.Latency)
	}
}

func TestAdvanceStaysInBounds(t *testing.T) {
	p := DefaultProfile()
	p.IncidentRate = 0.5
	gen := NewGenerator(rand.New(rand.NewSource(7)), p)
	starts := []NodeMetrics{
		{CPU: 0, Memory: 0, Disk: 0, Latency: 0.1},
		{CPU: 100, Memory: 100, Disk: 100, Latency: 500},
		{CPU: 50, Memory: 50, Disk: 50, Latency: 5},
	}
	for _, m := range starts {
		for i := 0; i < 5000; i++ {
			m = gen.Advance(m)
			checkBounds(t, m)
		}
	}
}

func TestAdvanceRandomWalkStep(t *testing.T) {
	p := DefaultProfile()
	p.IncidentRate = 0
	gen := NewGenerator(rand.New(rand.NewSource(1)), p)
	prev := NodeMetrics{CPU: 50, Memory: 50, Disk: 50, Latency: 50}
	for i := 0; i < 1000; i++ {
		next := gen.Advance(prev)
		if d := next.CPU - prev.CPU; d < -cpuStep || d > cpuStep {
			t.Fatalf("cpu step %f exceeds %f", d, cpuStep)
		}
		if d := next.Memory - prev.Memory; d < -memoryStep || d > memoryStep {
			t.Fatalf("memory step %f exceeds %f", d, memoryStep)
		}
		if d := next.Disk - prev.Disk; d < -diskStep || d > diskStep {
			t.Fatalf("disk step %f exceeds %f", d, diskStep)
		}
		if d := next.Latency - prev.Latency; d < -latencyStep || d > latencyStep {
			t.Fatalf("latency step %f exceeds %f", d, latencyStep)
		}
	}
}

func TestAdvanceIncidentBoost(t *testing.T) {
	p := DefaultProfile()
	p.IncidentRate = 1
	p.Incidents = []Incident{{Name: "cpu_spike", Gauge: GaugeCPU, Boost: Range{Min: 20, Max: 40}}}
	gen := NewGenerator(rand.New(rand.NewSource(3)), p)
	next := gen.Advance(NodeMetrics{CPU: 10, Memory: 10, Disk: 10, Latency: 1})
	if next.CPU < 10-cpuStep+20 {
		t.Fatalf("expected cpu spike, got %f", next.CPU)
	}
	if next.Memory > 10+memoryStep {
		t.Fatalf("memory should only random walk, got %f", next.Memory)
	}
}

func TestAdvanceDeterministicWithSeed(t *testing.T) {
	p := DefaultProfile()
	p.IncidentRate = 0.3
	a := NewGenerator(rand.New(rand.NewSource(42)), p)
	b := NewGenerator(rand.New(rand.NewSource(42)), p)
	ma := a.Initial()
	mb := b.Initial()
	for i := 0; i < 200; i++ {
		if ma != mb {
			t.Fatalf("tick %d diverged: %+v vs %+v", i, ma, mb)
		}
		ma = a.Advance(ma)
		mb = b.Advance(mb)
	}
}

func TestInitialHealthyRange(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(9)), DefaultProfile())
	for i := 0; i < 500; i++ {
		m := gen.Initial()
		if m.CPU < 10 || m.CPU > 30 || m.Memory < 20 || m.Memory > 40 ||
			m.Disk < 15 || m.Disk > 35 || m.Latency < 1 || m.Latency > 5 {
			t.Fatalf("initial metrics outside healthy range: %+v", m)
		}
	}
}

func TestNodeTableName(t *testing.T) {
	orig := NodeTableName
	NodeTableName = "custom"
	defer func() { NodeTableName = orig }()
	if (Node{}).TableName() != "custom" {
		t.Errorf("expected custom table name, got %s", (Node{}).TableName())
	}
}

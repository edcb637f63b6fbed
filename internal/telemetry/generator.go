package telemetry

import (
	"math"
	"math/rand"
)

// Gauge names a node metric dimension.
type Gauge string

// Metric gauges.
const (
	GaugeCPU     Gauge = "cpu"
	GaugeMemory  Gauge = "memory"
	GaugeDisk    Gauge = "disk"
	GaugeLatency Gauge = "latency"
)

// Gauge bounds. Percentages stay in [0,100]; latency never drops below minLatency.
const (
	maxPercent = 100.0
	minLatency = 0.1
)

// Random walk step per tick for each gauge.
const (
	cpuStep     = 5.0
	memoryStep  = 3.0
	diskStep    = 1.0
	latencyStep = 1.0
)

// Range is a closed interval used for uniform draws.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (r Range) draw(rng *rand.Rand) float64 {
	return uniform(rng, r.Min, r.Max)
}

// Incident is a transient one-sided boost layered on top of the random walk.
type Incident struct {
	Name  string `json:"name" yaml:"name"`
	Gauge Gauge  `json:"gauge" yaml:"gauge"`
	Boost Range  `json:"boost" yaml:"boost"`
}

// InitialRanges bounds the healthy metrics a node is seeded with.
type InitialRanges struct {
	CPU     Range `json:"cpu" yaml:"cpu"`
	Memory  Range `json:"memory" yaml:"memory"`
	Disk    Range `json:"disk" yaml:"disk"`
	Latency Range `json:"latency" yaml:"latency"`
}

// Profile holds the tunable probabilities and magnitudes of the simulation.
type Profile struct {
	Initial      InitialRanges
	IncidentRate float64
	Incidents    []Incident
	OfflineRate  float64
	SecurityRate float64
}

// DefaultIncidents is the incident table used when none is configured.
//
//	event               probability          gauge     boost
//	cpu_spike           rate/4               cpu       +U(20,40)
//	memory_leak         rate/4               memory    +U(15,30)
//	network_congestion  rate/4               latency   +U(10,50)
//	disk_full           rate/4               disk      +U(10,20)
func DefaultIncidents() []Incident {
	return []Incident{
		{Name: "cpu_spike", Gauge: GaugeCPU, Boost: Range{Min: 20, Max: 40}},
		{Name: "memory_leak", Gauge: GaugeMemory, Boost: Range{Min: 15, Max: 30}},
		{Name: "network_congestion", Gauge: GaugeLatency, Boost: Range{Min: 10, Max: 50}},
		{Name: "disk_full", Gauge: GaugeDisk, Boost: Range{Min: 10, Max: 20}},
	}
}

// DefaultProfile returns the stock tuning: 5% incident rate, 2% flaky
// disconnects and 1% suspicious activity on eligible nodes.
func DefaultProfile() Profile {
	return Profile{
		Initial: InitialRanges{
			CPU:     Range{Min: 10, Max: 30},
			Memory:  Range{Min: 20, Max: 40},
			Disk:    Range{Min: 15, Max: 35},
			Latency: Range{Min: 1, Max: 5},
		},
		IncidentRate: 0.05,
		Incidents:    DefaultIncidents(),
		OfflineRate:  0.02,
		SecurityRate: 0.01,
	}
}

// Generator advances node metrics with bounded random walks.
// It is not safe for concurrent use; the simulation loop owns it.
type Generator struct {
	rand    *rand.Rand
	profile Profile
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(rng *rand.Rand, profile Profile) *Generator {
	return &Generator{rand: rng, profile: profile}
}

// Initial returns a fresh set of healthy metrics.
func (g *Generator) Initial() NodeMetrics {
	r := g.profile.Initial
	return clampMetrics(NodeMetrics{
		CPU:     r.CPU.draw(g.rand),
		Memory:  r.Memory.draw(g.rand),
		Disk:    r.Disk.draw(g.rand),
		Latency: r.Latency.draw(g.rand),
	})
}

// Advance returns the next metrics snapshot for a node. It never fails and
// every gauge of the result lies within its bound.
func (g *Generator) Advance(prev NodeMetrics) NodeMetrics {
	next := clampMetrics(NodeMetrics{
		CPU:     prev.CPU + uniform(g.rand, -cpuStep, cpuStep),
		Memory:  prev.Memory + uniform(g.rand, -memoryStep, memoryStep),
		Disk:    prev.Disk + uniform(g.rand, -diskStep, diskStep),
		Latency: prev.Latency + uniform(g.rand, -latencyStep, latencyStep),
	})

	if len(g.profile.Incidents) > 0 && g.rand.Float64() < g.profile.IncidentRate {
		inc := g.profile.Incidents[g.rand.Intn(len(g.profile.Incidents))]
		next = applyIncident(next, inc, inc.Boost.draw(g.rand))
	}
	return next
}

func applyIncident(m NodeMetrics, inc Incident, boost float64) NodeMetrics {
	switch inc.Gauge {
	case GaugeCPU:
		m.CPU += boost
	case GaugeMemory:
		m.Memory += boost
	case GaugeDisk:
		m.Disk += boost
	case GaugeLatency:
		m.Latency += boost
	}
	return clampMetrics(m)
}

func clampMetrics(m NodeMetrics) NodeMetrics {
	return NodeMetrics{
		CPU:     clampPercent(m.CPU),
		Memory:  clampPercent(m.Memory),
		Disk:    clampPercent(m.Disk),
		Latency: math.Max(minLatency, m.Latency),
	}
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(maxPercent, v))
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Simulator orchestrating network nodes and telemetry ticks
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"netwatch-sim/internal/config"
	"netwatch-sim/internal/observability"
	"netwatch-sim/internal/store"
	"netwatch-sim/internal/telemetry"

	"github.com/google/uuid"
)

const defaultErrorBackoff = 5 * time.Second

// Broadcaster fans serialized updates out to viewers.
type Broadcaster interface {
	Broadcast(payload []byte) int
	Len() int
}

// Simulator owns the run state of the node simulation. While running, a
// single background task owns the node slice; everything else reads nodes
// through the store. mu guards only running, starting and task, and is
// never held across persistence or a wait on the previous task.
type Simulator struct {
	clusterID    string
	cfg          *config.SimulationConfig
	store        store.Store
	hub          Broadcaster
	writer       TelemetryWriter
	tickInterval time.Duration
	backoff      time.Duration
	now          func() time.Time
	gen          *telemetry.Generator
	deriver      *telemetry.Deriver
	metrics      *observability.Metrics

	mu       sync.Mutex
	running  bool
	starting bool
	task     *task
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSimulator wires a simulator. writer may be nil or additionally
// implement AlertWriter and StateWriter. A nil rng is seeded from cfg.Seed,
// or from the clock when that is zero; now defaults to time.Now.
func NewSimulator(clusterID string, cfg *config.SimulationConfig, st store.Store, hub Broadcaster, writer TelemetryWriter, tickInterval time.Duration, rng *rand.Rand, now func() time.Time) *Simulator {
	if cfg == nil {
		cfg = config.Default()
	}
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	if now == nil {
		now = time.Now
	}
	if tickInterval <= 0 {
		tickInterval = cfg.TickInterval
	}
	backoff := cfg.ErrorBackoff
	if backoff <= 0 {
		backoff = defaultErrorBackoff
	}
	profile := cfg.Profile()
	return &Simulator{
		clusterID:    clusterID,
		cfg:          cfg,
		store:        st,
		hub:          hub,
		writer:       writer,
		tickInterval: tickInterval,
		backoff:      backoff,
		now:          now,
		gen:          telemetry.NewGenerator(rng, profile),
		deriver:      telemetry.NewDeriver(rng, profile, now),
	}
}

// SetMetrics attaches Prometheus instrumentation.
func (s *Simulator) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// Start seeds all nodes in the healthy range, persists them and launches
// the background task. It returns false when already running or another
// Start is in progress. When seeding cannot be persisted the simulator
// stays stopped and the error is returned. The task outlives ctx; only
// Stop or Close end it.
func (s *Simulator) Start(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.running || s.starting {
		s.mu.Unlock()
		return false, nil
	}
	s.starting = true
	prev := s.task
	s.mu.Unlock()

	if prev != nil {
		// Let the previous run finish its in-flight tick before re-seeding.
		<-prev.done
	}

	nodes := s.seedNodes()
	for _, n := range nodes {
		if err := s.store.UpsertNode(ctx, n); err != nil {
			s.mu.Lock()
			s.starting = false
			s.mu.Unlock()
			return false, fmt.Errorf("persist seed node %s: %w", n.Name, err)
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.mu.Lock()
	s.task = t
	s.starting = false
	s.running = true
	s.metrics.SetRunning(true)
	s.mu.Unlock()
	go s.run(runCtx, nodes, t.done)
	return true, nil
}

// Stop asks the background task to exit at its next tick boundary and
// reports whether it was running. Calling Stop while stopped is a no-op.
func (s *Simulator) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	s.task.cancel()
	s.metrics.SetRunning(false)
	return true
}

// Close stops the simulator and waits for the background task to exit.
func (s *Simulator) Close() {
	s.Stop()
	s.mu.Lock()
	t := s.task
	s.mu.Unlock()
	if t != nil {
		<-t.done
	}
}

// Running reports whether the simulation is running.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetConfig returns the loaded simulation configuration.
func (s *Simulator) GetConfig() *config.SimulationConfig {
	return s.cfg
}

func (s *Simulator) seedNodes() []telemetry.Node {
	now := s.now().UTC()
	nodes := make([]telemetry.Node, 0, len(s.cfg.Nodes))
	for _, seed := range s.cfg.Nodes {
		nodes = append(nodes, telemetry.Node{
			ID:          NodeID(s.clusterID, seed.IP),
			Name:        seed.Name,
			Type:        seed.Type,
			IPAddress:   seed.IP,
			Status:      telemetry.StatusOnline,
			NodeMetrics: s.gen.Initial(),
			LastSeen:    now,
			Location:    seed.Location,
		})
	}
	return nodes
}

// NodeID derives a stable node id from the cluster and the node address, so
// restarts keep one record per seed entry.
func NodeID(clusterID, ip string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("netwatch://"+clusterID+"/"+ip)).String()
}

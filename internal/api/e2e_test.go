package api

import (
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch-sim/internal/config"
	"netwatch-sim/internal/hub"
	"netwatch-sim/internal/observability"
	"netwatch-sim/internal/sim"
	"netwatch-sim/internal/store"
	"netwatch-sim/internal/telemetry"
)

func TestEndToEndStartTickListNodes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.New(reg)
	st := store.NewMemoryStore()
	h := hub.New(m, nil)
	simulator := sim.NewSimulator("e2e", config.Default(), st, h, nil, 20*time.Millisecond, rand.New(rand.NewSource(7)), nil)
	simulator.SetMetrics(m)
	t.Cleanup(simulator.Close)

	viewer := hub.NewQueueViewer(4)
	h.Register(viewer)

	env := &testEnv{store: st, hub: h, diag: &fakeDiagnoser{}, reg: reg}
	env.srv = NewServer(Config{Store: st, Sim: simulator, Hub: h, Diagnoser: env.diag, Metrics: m, Gatherer: reg})
	t.Cleanup(env.srv.Close)

	w := env.do(t, http.MethodPost, "/api/simulation/start", "")
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case payload := <-viewer.C():
		require.NoError(t, telemetry.ValidateUpdate(payload))
	case <-time.After(5 * time.Second):
		t.Fatal("no broadcast after start")
	}

	w = env.do(t, http.MethodGet, "/api/nodes", "")
	require.Equal(t, http.StatusOK, w.Code)
	nodes := decode[[]telemetry.Node](t, w)
	require.Len(t, nodes, 10)
	for _, n := range nodes {
		assert.NotEmpty(t, n.ID)
		assert.InDelta(t, 50, n.CPU, 50, n.Name)
		assert.InDelta(t, 50, n.Memory, 50, n.Name)
		assert.InDelta(t, 50, n.Disk, 50, n.Name)
		assert.GreaterOrEqual(t, n.Latency, 0.1, n.Name)
		assert.Contains(t, []telemetry.Status{
			telemetry.StatusOnline, telemetry.StatusWarning, telemetry.StatusCritical, telemetry.StatusOffline,
		}, n.Status, n.Name)
	}

	w = env.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, true, decode[map[string]any](t, w)["simulation_running"])

	w = env.do(t, http.MethodPost, "/api/simulation/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, simulator.Running())
}

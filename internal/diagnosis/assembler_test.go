package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch-sim/internal/store"
	"netwatch-sim/internal/telemetry"
)

type recordingLLM struct {
	prompts  []string
	response string
	err      error
}

func (r *recordingLLM) Generate(_ context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	return r.response, r.err
}

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) ListNodes(context.Context, int) ([]telemetry.Node, error) {
	return nil, errors.New("db down")
}

func seed(t *testing.T, st store.Store, nodes, alerts int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < nodes; i++ {
		require.NoError(t, st.UpsertNode(ctx, telemetry.Node{
			ID:          fmt.Sprintf("n%02d", i),
			Name:        fmt.Sprintf("Node %02d", i),
			Type:        telemetry.CategoryServer,
			Status:      telemetry.StatusOnline,
			NodeMetrics: telemetry.NodeMetrics{CPU: 42.3, Memory: 50, Disk: 30, Latency: 3.5},
		}))
	}
	for i := 0; i < alerts; i++ {
		require.NoError(t, st.InsertAlert(ctx, telemetry.Alert{
			ID:        fmt.Sprintf("a%02d", i),
			NodeID:    "n00",
			Type:      telemetry.AlertPerformance,
			Severity:  telemetry.SeverityHigh,
			Message:   fmt.Sprintf("alert %02d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestBuildContextLimits(t *testing.T) {
	st := store.NewMemoryStore()
	seed(t, st, 12, 8)
	nodes, err := st.ListNodes(context.Background(), 0)
	require.NoError(t, err)
	alerts, err := st.UnresolvedAlerts(context.Background(), 20)
	require.NoError(t, err)

	out, err := BuildContext(nodes, alerts, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "Nodes: 12 total")
	assert.Contains(t, out, "Active Alerts: 8")
	assert.Equal(t, 10, strings.Count(out, "): Status="))
	assert.Contains(t, out, "- Node 00 (server): Status=online, CPU=42.3%, Memory=50.0%, Latency=3.5ms")
	assert.NotContains(t, out, "Node 10")
	assert.Equal(t, 5, strings.Count(out, "(Severity: high)"))
	assert.Contains(t, out, "- alert 07 (Severity: high)")
	assert.NotContains(t, out, "alert 02")
	assert.NotContains(t, out, "Additional Context")
}

func TestBuildContextNoAlertsAndExtra(t *testing.T) {
	out, err := BuildContext(nil, nil, map[string]any{"focus": "router"})
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes: 0 total")
	assert.NotContains(t, out, "Active Alerts:\n")
	assert.Contains(t, out, `Additional Context: {"focus":"router"}`)
}

func TestDiagnosePersistsExchange(t *testing.T) {
	st := store.NewMemoryStore()
	seed(t, st, 3, 1)
	llm := &recordingLLM{response: "Check the **router**."}
	a := NewAssembler(st, llm)

	resp, err := a.Diagnose(context.Background(), "why is it slow?", map[string]any{"window": "5m"})
	require.NoError(t, err)
	assert.Equal(t, "Check the **router**.", resp)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "User Query: why is it slow?")
	assert.Contains(t, llm.prompts[0], `Additional Context: {"window":"5m"}`)
	assert.True(t, strings.HasSuffix(llm.prompts[0], "Please provide a detailed analysis and recommendations."))

	history, err := st.ChatHistory(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "why is it slow?", history[0].Message)
	assert.Equal(t, "Check the **router**.", history[0].Response)
	assert.NotEmpty(t, history[0].ID)
}

func TestDiagnoseLLMFailure(t *testing.T) {
	st := store.NewMemoryStore()
	a := NewAssembler(st, &recordingLLM{err: errors.New("quota exceeded")})

	_, err := a.Diagnose(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	history, err := st.ChatHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDiagnoseStoreFailure(t *testing.T) {
	llm := &recordingLLM{response: "ok"}
	a := NewAssembler(failingStore{store.NewMemoryStore()}, llm)

	_, err := a.Diagnose(context.Background(), "q", nil)
	require.ErrorContains(t, err, "db down")
	assert.Empty(t, llm.prompts)
}

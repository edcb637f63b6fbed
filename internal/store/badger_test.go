package store

import (
	"context"
	"testing"

	"netwatch-sim/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBadgerRequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(DefaultBadgerConfig(dir))
	require.NoError(t, err)
	require.NoError(t, s.UpsertNode(ctx, telemetry.Node{ID: "n1", Name: "Firewall"}))
	require.NoError(t, s.InsertAlert(ctx, testAlert("a1", 0)))
	require.NoError(t, s.Close())

	s2, err := OpenBadger(DefaultBadgerConfig(dir))
	require.NoError(t, err)
	defer s2.Close()

	nodes, err := s2.ListNodes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Firewall", nodes[0].Name)

	alerts, err := s2.UnresolvedAlerts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Timestamp.Equal(base))
}

func TestNewGCRunnerValidation(t *testing.T) {
	s, err := OpenBadgerInMemory()
	require.NoError(t, err)
	defer s.Close()

	_, err = newGCRunner(s.db, 0, 0.5, nil)
	assert.Error(t, err)
	_, err = newGCRunner(s.db, 1, 1.5, nil)
	assert.Error(t, err)
}

func TestTimeKeyOrdering(t *testing.T) {
	a := timeKey(openPrefix, base, "z")
	b := timeKey(openPrefix, base.Add(1), "a")
	assert.Less(t, string(a), string(b))
}

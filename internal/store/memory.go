package store

import (
	"context"
	"sort"
	"sync"

	"netwatch-sim/internal/telemetry"
)

// MemoryStore keeps everything in process memory. It backs tests and
// `--store memory`.
type MemoryStore struct {
	mu     sync.RWMutex
	nodes  map[string]telemetry.Node
	alerts []telemetry.Alert
	index  map[string]int
	chats  []telemetry.ChatExchange
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]telemetry.Node),
		index: make(map[string]int),
	}
}

func (s *MemoryStore) UpsertNode(ctx context.Context, node telemetry.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.nodes[node.ID] = node
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListNodes(ctx context.Context, limit int) ([]telemetry.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]telemetry.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	s.mu.RUnlock()
	sortNodes(out)
	return truncate(out, limit), nil
}

func (s *MemoryStore) InsertAlert(ctx context.Context, alert telemetry.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[alert.ID]; ok {
		s.alerts[i] = alert
		return nil
	}
	s.index[alert.ID] = len(s.alerts)
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *MemoryStore) UnresolvedAlerts(ctx context.Context, limit int) ([]telemetry.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []telemetry.Alert
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if !s.alerts[i].Resolved {
			out = append(out, s.alerts[i])
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return truncate(out, limit), nil
}

func (s *MemoryStore) ResolveAlert(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	s.alerts[i].Resolved = true
	return nil
}

func (s *MemoryStore) InsertChat(ctx context.Context, chat telemetry.ChatExchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.chats = append(s.chats, chat)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ChatHistory(ctx context.Context, limit int) ([]telemetry.ChatExchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]telemetry.ChatExchange, 0, len(s.chats))
	for i := len(s.chats) - 1; i >= 0; i-- {
		out = append(out, s.chats[i])
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return truncate(out, limit), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

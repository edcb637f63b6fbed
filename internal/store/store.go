// Persistence for nodes, alerts and diagnosis exchanges.
package store

import (
	"context"
	"errors"
	"sort"

	"netwatch-sim/internal/telemetry"
)

// ErrNotFound is returned when a record id is unknown.
var ErrNotFound = errors.New("not found")

// Store persists simulation state. Implementations must allow InsertAlert
// from the simulation loop concurrently with ResolveAlert from handlers.
type Store interface {
	// UpsertNode inserts or replaces a node by id.
	UpsertNode(ctx context.Context, node telemetry.Node) error
	// ListNodes returns up to limit nodes ordered by name; limit <= 0 means all.
	ListNodes(ctx context.Context, limit int) ([]telemetry.Node, error)
	InsertAlert(ctx context.Context, alert telemetry.Alert) error
	// UnresolvedAlerts returns up to limit unresolved alerts, newest first.
	UnresolvedAlerts(ctx context.Context, limit int) ([]telemetry.Alert, error)
	// ResolveAlert marks an alert resolved. Resolving twice succeeds; an
	// unknown id yields ErrNotFound.
	ResolveAlert(ctx context.Context, id string) error
	InsertChat(ctx context.Context, chat telemetry.ChatExchange) error
	// ChatHistory returns up to limit exchanges, newest first.
	ChatHistory(ctx context.Context, limit int) ([]telemetry.ChatExchange, error)
	Close() error
}

func sortNodes(nodes []telemetry.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

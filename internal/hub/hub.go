// Fan-out of per-tick payloads to connected viewers.
package hub

import (
	"fmt"
	"log/slog"
	"sync"

	"netwatch-sim/internal/observability"
)

// Viewer receives broadcast payloads. Send must not block for long; the
// payload slice is shared between viewers and must not be modified.
type Viewer interface {
	Send(payload []byte) error
}

// Handle identifies a registration.
type Handle uint64

// Hub holds the set of registered viewers. Register and Unregister are safe
// to call concurrently with Broadcast.
type Hub struct {
	mu      sync.RWMutex
	viewers map[Handle]Viewer
	next    Handle
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates an empty hub. metrics and logger may be nil.
func New(metrics *observability.Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		viewers: make(map[Handle]Viewer),
		metrics: metrics,
		logger:  logger,
	}
}

// Register adds v and returns its handle.
func (h *Hub) Register(v Viewer) Handle {
	h.mu.Lock()
	h.next++
	id := h.next
	h.viewers[id] = v
	n := len(h.viewers)
	h.mu.Unlock()
	h.metrics.SetViewers(n)
	return id
}

// Unregister removes a viewer. Unknown handles are ignored.
func (h *Hub) Unregister(id Handle) {
	h.mu.Lock()
	delete(h.viewers, id)
	n := len(h.viewers)
	h.mu.Unlock()
	h.metrics.SetViewers(n)
}

// Len returns the number of registered viewers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Broadcast delivers payload to every viewer registered when the call
// starts and returns how many accepted it. Failing viewers are counted and
// logged but stay registered; removing them is the transport's job.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	targets := make(map[Handle]Viewer, len(h.viewers))
	for id, v := range h.viewers {
		targets[id] = v
	}
	h.mu.RUnlock()

	delivered := 0
	failed := 0
	for id, v := range targets {
		if err := deliver(v, payload); err != nil {
			failed++
			h.logger.Debug("viewer delivery failed", "viewer", uint64(id), "error", err)
			continue
		}
		delivered++
	}
	h.metrics.BroadcastFailed(failed)
	return delivered
}

func deliver(v Viewer, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("viewer panicked: %v", r)
		}
	}()
	return v.Send(payload)
}

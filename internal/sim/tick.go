package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"netwatch-sim/internal/logging"
	"netwatch-sim/internal/telemetry"
)

// run is the background task. The first tick fires immediately; later
// ticks wait tickInterval after the previous broadcast, or the error
// backoff after a failed tick.
func (s *Simulator) run(ctx context.Context, nodes []telemetry.Node, done chan<- struct{}) {
	defer close(done)
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "cluster", s.clusterID, "nodes", len(nodes), "tick_interval", s.tickInterval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	var tickNo uint64
	for {
		select {
		case <-ctx.Done():
			log.Info("stopping simulator", "ticks", tickNo)
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			log.Info("stopping simulator", "ticks", tickNo)
			return
		}

		tickNo++
		started := time.Now()
		// In-flight work completes even if Stop arrives mid-tick.
		err := s.tick(context.WithoutCancel(ctx), nodes, tickNo)
		s.metrics.ObserveTick(err, time.Since(started))

		wait := s.tickInterval
		if err != nil {
			log.Error("tick failed", "tick", tickNo, "err", err, "backoff", s.backoff)
			wait = s.backoff
		}
		timer.Reset(wait)
	}
}

// tick advances every node once, persists the result, feeds the secondary
// writers and broadcasts a network_update.
func (s *Simulator) tick(ctx context.Context, nodes []telemetry.Node, tickNo uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick %d panicked: %v", tickNo, r)
		}
	}()

	now := s.now().UTC()
	var raised []telemetry.Alert
	for i := range nodes {
		n := &nodes[i]
		n.NodeMetrics = s.gen.Advance(n.NodeMetrics)
		status, alerts := s.deriver.Derive(*n)
		n.Status = status
		n.LastSeen = now

		if err := s.store.UpsertNode(ctx, *n); err != nil {
			return fmt.Errorf("persist node %s: %w", n.Name, err)
		}
		for _, a := range alerts {
			if err := s.store.InsertAlert(ctx, a); err != nil {
				return fmt.Errorf("persist alert for %s: %w", n.Name, err)
			}
			s.metrics.AlertRaised(string(a.Type), string(a.Severity))
		}
		raised = append(raised, alerts...)
	}

	snapshot := make([]telemetry.Node, len(nodes))
	copy(snapshot, nodes)
	s.record(ctx, snapshot, raised, tickNo, now)

	payload, err := json.Marshal(telemetry.NewNetworkUpdate(snapshot, now))
	if err != nil {
		return fmt.Errorf("encode network update: %w", err)
	}
	if s.hub != nil {
		s.hub.Broadcast(payload)
	}
	return nil
}

// record hands the tick's rows to the secondary writers. Failures are
// logged and counted, never returned.
func (s *Simulator) record(ctx context.Context, nodes []telemetry.Node, alerts []telemetry.Alert, tickNo uint64, now time.Time) {
	log := logging.FromContext(ctx)

	state := telemetry.SimulationStateRow{
		ClusterID:    s.clusterID,
		Tick:         tickNo,
		AlertsRaised: len(alerts),
		Timestamp:    now,
	}
	state.CountStatus(nodes)
	if s.hub != nil {
		state.Viewers = s.hub.Len()
	}
	s.metrics.SetNodeStatus(map[string]int{
		string(telemetry.StatusOnline):   state.Online,
		string(telemetry.StatusWarning):  state.Warning,
		string(telemetry.StatusCritical): state.Critical,
		string(telemetry.StatusOffline):  state.Offline,
	})

	if s.writer == nil {
		return
	}
	if err := writeNodes(s.writer, nodes); err != nil {
		log.Error("node write failed", "tick", tickNo, "err", err)
		s.metrics.SinkFailed("node")
	}
	if aw, ok := s.writer.(AlertWriter); ok && len(alerts) > 0 {
		if err := writeAlerts(aw, alerts); err != nil {
			log.Error("alert write failed", "tick", tickNo, "err", err)
			s.metrics.SinkFailed("alert")
		}
	}
	if sw, ok := s.writer.(StateWriter); ok {
		if err := sw.WriteState(state); err != nil {
			log.Error("state write failed", "tick", tickNo, "err", err)
			s.metrics.SinkFailed("state")
		}
	}
}

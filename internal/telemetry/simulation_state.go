package telemetry

import "time"

// SimulationStateRow captures per-tick simulator state metrics.
type SimulationStateRow struct {
	ClusterID    string    `json:"cluster_id"`
	Tick         uint64    `json:"tick"`
	Online       int       `json:"online"`
	Warning      int       `json:"warning"`
	Critical     int       `json:"critical"`
	Offline      int       `json:"offline"`
	AlertsRaised int       `json:"alerts_raised"`
	Viewers      int       `json:"viewers"`
	Timestamp    time.Time `json:"ts"`
}

// CountStatus tallies node statuses into the row.
func (r *SimulationStateRow) CountStatus(nodes []Node) {
	for _, n := range nodes {
		switch n.Status {
		case StatusOnline:
			r.Online++
		case StatusWarning:
			r.Warning++
		case StatusCritical:
			r.Critical++
		case StatusOffline:
			r.Offline++
		}
	}
}

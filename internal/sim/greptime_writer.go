package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"netwatch-sim/internal/telemetry"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeDB tables for alerts and per-tick state. Node rows go to
// telemetry.NodeTableName.
const (
	AlertTableName = "network_alerts"
	StateTableName = "simulation_state"
)

const (
	defaultGreptimePort = 4001
	greptimeTimeout     = 5 * time.Second
)

// greptimeClient is the subset of the ingester client the writer needs.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes node metrics, alerts and state rows to GreptimeDB
// via the ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client     greptimeClient
	clusterID  string
	nodeTable  string
	alertTable string
	stateTable string
	logger     *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint (host or host:port, gRPC).
func NewGreptimeDBWriter(endpoint, database, clusterID string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:     client,
		clusterID:  clusterID,
		nodeTable:  telemetry.NodeTableName,
		alertTable: AlertTableName,
		stateTable: StateTableName,
		logger:     slog.Default().With("component", "greptimedb"),
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// No port given.
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptime port %q: %w", portStr, err)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) write(tbl *table.Table, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write %d rows: %w", n, err)
	}
	if w.logger != nil {
		w.logger.Debug("wrote rows", "rows", n)
	}
	return nil
}

// Write inserts a single node row.
func (w *GreptimeDBWriter) Write(row telemetry.Node) error {
	return w.WriteBatch([]telemetry.Node{row})
}

// WriteBatch inserts multiple node rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.Node) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.nodeTable)
	if err != nil {
		return err
	}
	for _, err := range []error{
		tbl.AddTagColumn("cluster_id", types.STRING),
		tbl.AddTagColumn("node_id", types.STRING),
		tbl.AddFieldColumn("name", types.STRING),
		tbl.AddFieldColumn("node_type", types.STRING),
		tbl.AddFieldColumn("ip_address", types.STRING),
		tbl.AddFieldColumn("status", types.STRING),
		tbl.AddFieldColumn("cpu_usage", types.FLOAT64),
		tbl.AddFieldColumn("memory_usage", types.FLOAT64),
		tbl.AddFieldColumn("disk_usage", types.FLOAT64),
		tbl.AddFieldColumn("network_latency", types.FLOAT64),
		tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND),
	} {
		if err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := tbl.AddRow(w.clusterID, r.ID, r.Name, string(r.Type), r.IPAddress, string(r.Status),
			r.CPU, r.Memory, r.Disk, r.Latency, r.LastSeen); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteAlert inserts a single alert.
func (w *GreptimeDBWriter) WriteAlert(a telemetry.Alert) error {
	return w.WriteAlerts([]telemetry.Alert{a})
}

// WriteAlerts inserts multiple alerts.
func (w *GreptimeDBWriter) WriteAlerts(alerts []telemetry.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	tbl, err := table.New(w.alertTable)
	if err != nil {
		return err
	}
	for _, err := range []error{
		tbl.AddTagColumn("cluster_id", types.STRING),
		tbl.AddTagColumn("node_id", types.STRING),
		tbl.AddFieldColumn("alert_id", types.STRING),
		tbl.AddFieldColumn("alert_type", types.STRING),
		tbl.AddFieldColumn("severity", types.STRING),
		tbl.AddFieldColumn("message", types.STRING),
		tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND),
	} {
		if err != nil {
			return err
		}
	}
	for _, a := range alerts {
		if err := tbl.AddRow(w.clusterID, a.NodeID, a.ID, string(a.Type), string(a.Severity), a.Message, a.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(alerts))
}

// WriteState inserts a simulation state row.
func (w *GreptimeDBWriter) WriteState(row telemetry.SimulationStateRow) error {
	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	for _, err := range []error{
		tbl.AddTagColumn("cluster_id", types.STRING),
		tbl.AddFieldColumn("tick", types.UINT64),
		tbl.AddFieldColumn("online", types.INT64),
		tbl.AddFieldColumn("warning", types.INT64),
		tbl.AddFieldColumn("critical", types.INT64),
		tbl.AddFieldColumn("offline", types.INT64),
		tbl.AddFieldColumn("alerts_raised", types.INT64),
		tbl.AddFieldColumn("viewers", types.INT64),
		tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND),
	} {
		if err != nil {
			return err
		}
	}
	if err := tbl.AddRow(row.ClusterID, row.Tick, int64(row.Online), int64(row.Warning), int64(row.Critical),
		int64(row.Offline), int64(row.AlertsRaised), int64(row.Viewers), row.Timestamp); err != nil {
		return err
	}
	return w.write(tbl, 1)
}

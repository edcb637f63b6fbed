package sim

import "netwatch-sim/internal/telemetry"

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.Node) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.Node) error
}

// AlertWriter records alerts raised on a tick.
type AlertWriter interface {
	WriteAlert(telemetry.Alert) error
}

// Optional: alert writers may support batch mode.
type batchAlertWriter interface {
	WriteAlerts([]telemetry.Alert) error
}

// StateWriter handles simulation state rows.
type StateWriter interface {
	WriteState(telemetry.SimulationStateRow) error
}

// AdminStatusWriter allows writers to learn whether the HTTP API is listening.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// writeNodes sends rows to w, in one batch when supported.
func writeNodes(w TelemetryWriter, rows []telemetry.Node) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(rows)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// writeAlerts sends alerts to w, in one batch when supported.
func writeAlerts(w AlertWriter, alerts []telemetry.Alert) error {
	if bw, ok := w.(batchAlertWriter); ok {
		return bw.WriteAlerts(alerts)
	}
	for _, a := range alerts {
		if err := w.WriteAlert(a); err != nil {
			return err
		}
	}
	return nil
}

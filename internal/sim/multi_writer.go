package sim

import (
	"errors"

	"netwatch-sim/internal/telemetry"
)

// MultiWriter fans node, alert and state rows out to multiple writers.
// Every writer is attempted; the returned error joins individual failures.
type MultiWriter struct {
	telewriters  []TelemetryWriter
	alertwriters []AlertWriter
	statewriters []StateWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(tws []TelemetryWriter, aws []AlertWriter, sws []StateWriter) *MultiWriter {
	return &MultiWriter{telewriters: tws, alertwriters: aws, statewriters: sws}
}

// Write sends a node row to all writers.
func (mw *MultiWriter) Write(row telemetry.Node) error {
	var errs []error
	for _, w := range mw.telewriters {
		errs = append(errs, w.Write(row))
	}
	return errors.Join(errs...)
}

// WriteBatch sends multiple node rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.Node) error {
	var errs []error
	for _, w := range mw.telewriters {
		errs = append(errs, writeNodes(w, rows))
	}
	return errors.Join(errs...)
}

// WriteAlert sends an alert to all alert writers.
func (mw *MultiWriter) WriteAlert(a telemetry.Alert) error {
	var errs []error
	for _, w := range mw.alertwriters {
		errs = append(errs, w.WriteAlert(a))
	}
	return errors.Join(errs...)
}

// WriteAlerts sends multiple alerts to all alert writers, using batch if supported.
func (mw *MultiWriter) WriteAlerts(alerts []telemetry.Alert) error {
	var errs []error
	for _, w := range mw.alertwriters {
		errs = append(errs, writeAlerts(w, alerts))
	}
	return errors.Join(errs...)
}

// WriteState sends a state row to all state writers.
func (mw *MultiWriter) WriteState(row telemetry.SimulationStateRow) error {
	var errs []error
	for _, w := range mw.statewriters {
		errs = append(errs, w.WriteState(row))
	}
	return errors.Join(errs...)
}

// SetAdminStatus forwards the API status to writers that display it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.telewriters {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}

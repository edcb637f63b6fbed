package sim

import (
	"fmt"
	"text/tabwriter"
	"time"

	"netwatch-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorGray    = "\x1b[90m"
)

var categoryPalette = []string{colorBlue, colorMagenta, colorCyan, colorGreen, colorYellow}

func (w *StdoutWriter) categoryColor(c telemetry.Category) string {
	if col, ok := w.categoryColors[c]; ok {
		return col
	}
	col := categoryPalette[w.colorIdx%len(categoryPalette)]
	w.categoryColors[c] = col
	w.colorIdx++
	return col
}

func statusColor(s telemetry.Status) string {
	switch s {
	case telemetry.StatusCritical, telemetry.StatusOffline:
		return colorRed
	case telemetry.StatusWarning:
		return colorYellow
	}
	return colorGreen
}

func severityColor(s telemetry.Severity) string {
	switch s {
	case telemetry.SeverityCritical, telemetry.SeverityHigh:
		return colorRed
	case telemetry.SeverityMedium:
		return colorYellow
	}
	return colorCyan
}

func (w *StdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Cluster:\t%s\n", w.cfg.ClusterID)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.cfg.TickInterval)
	fmt.Fprintf(tw, "Incident Rate:\t%.2f\n", w.cfg.IncidentRate)
	fmt.Fprintf(tw, "Offline Rate:\t%.2f\n", w.cfg.OfflineRate)
	fmt.Fprintf(tw, "Security Rate:\t%.2f\n", w.cfg.SecurityRate)
	tw.Flush()

	fmt.Fprintln(w.out, "\nNodes:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\tType\tIP\n")
	for _, n := range w.cfg.Nodes {
		col := w.categoryColor(n.Type)
		fmt.Fprintf(tw, "%s\t%s%s%s\t%s\n", n.Name, col, n.Type, colorReset, n.IP)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

func (w *StdoutWriter) writeColorNode(row telemetry.Node) error {
	w.once.Do(w.printOverview)

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.LastSeen.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%snode=%s%s ", colorWhite, row.Name, colorReset)
	fmt.Fprintf(w.out, "%stype=%s%s ", w.categoryColor(row.Type), row.Type, colorReset)
	fmt.Fprintf(w.out, "%sip=%s%s ", colorBlue, row.IPAddress, colorReset)
	fmt.Fprintf(w.out, "%scpu=%.1f%s ", colorGreen, row.CPU, colorReset)
	fmt.Fprintf(w.out, "%smem=%.1f%s ", colorYellow, row.Memory, colorReset)
	fmt.Fprintf(w.out, "%sdisk=%.1f%s ", colorMagenta, row.Disk, colorReset)
	fmt.Fprintf(w.out, "%slat=%.1fms%s ", colorCyan, row.Latency, colorReset)
	fmt.Fprintf(w.out, "%sstatus=%s%s", statusColor(row.Status), row.Status, colorReset)
	fmt.Fprintln(w.out)
	return nil
}

func (w *StdoutWriter) writeColorAlert(a telemetry.Alert) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sALERT%s type=%s severity=%s%s%s %s\n",
		colorGray, a.Timestamp.Format(time.RFC3339), colorReset,
		colorRed, colorReset, a.Type,
		severityColor(a.Severity), a.Severity, colorReset, a.Message)
	return nil
}

func (w *StdoutWriter) writeColorState(row telemetry.SimulationStateRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sSTATE%s tick=%d online=%d warning=%d critical=%d offline=%d alerts=%d viewers=%d\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, colorReset, row.Tick, row.Online, row.Warning,
		row.Critical, row.Offline, row.AlertsRaised, row.Viewers)
	return nil
}

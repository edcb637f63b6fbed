package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"netwatch-sim/internal/config"
	"netwatch-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries an alert log line for the viewport.
type logMsg struct{ line string }

// nodesMsg carries the latest rows for the node table.
type nodesMsg struct{ nodes []telemetry.Node }

// stateMsg carries a simulation state update.
type stateMsg struct{ telemetry.SimulationStateRow }

// adminMsg reports whether the HTTP API is listening.
type adminMsg struct{ active bool }

const maxLogLines = 1000

// TUIWriter renders node metrics and alerts using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
// Quitting the TUI interrupts the process unless Close was called first.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.Node) error {
	return w.WriteBatch([]telemetry.Node{row})
}

// WriteBatch updates the node table.
func (w *TUIWriter) WriteBatch(rows []telemetry.Node) error {
	cp := make([]telemetry.Node, len(rows))
	copy(cp, rows)
	w.program.Send(nodesMsg{nodes: cp})
	return nil
}

// WriteAlert appends an alert to the log viewport.
func (w *TUIWriter) WriteAlert(a telemetry.Alert) error {
	line := fmt.Sprintf("%s[%s]%s %s%-8s%s %-12s %s",
		colorGray, a.Timestamp.Format(time.RFC3339), colorReset,
		severityColor(a.Severity), a.Severity, colorReset,
		a.Type, a.Message)
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteAlerts appends multiple alerts.
func (w *TUIWriter) WriteAlerts(alerts []telemetry.Alert) error {
	for _, a := range alerts {
		_ = w.WriteAlert(a)
	}
	return nil
}

// WriteState updates the footer.
func (w *TUIWriter) WriteState(row telemetry.SimulationStateRow) error {
	w.program.Send(stateMsg{row})
	return nil
}

// SetAdminStatus implements AdminStatusWriter.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close stops the TUI without interrupting the process.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	table        table.Model
	vp           viewport.Model
	nodes        map[string]telemetry.Node
	logs         []string
	state        telemetry.SimulationStateRow
	admin        bool
	wrap         bool
	autoscroll   bool
	help         bool
	header       string
	headerHeight int
	width        int
	height       int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	cols := []table.Column{
		{Title: "Node", Width: 16},
		{Title: "Type", Width: 18},
		{Title: "IP", Width: 15},
		{Title: "Status", Width: 8},
		{Title: "CPU%", Width: 6},
		{Title: "Mem%", Width: 6},
		{Title: "Disk%", Width: 6},
		{Title: "Lat ms", Width: 7},
	}
	rows := 10
	if cfg != nil && len(cfg.Nodes) > 0 {
		rows = len(cfg.Nodes)
	}
	m := tuiModel{
		cfg:        cfg,
		table:      table.New(table.WithColumns(cols), table.WithHeight(rows+1)),
		vp:         viewport.New(0, 0),
		nodes:      make(map[string]telemetry.Node),
		autoscroll: true,
	}
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case nodesMsg:
		for _, n := range msg.nodes {
			m.nodes[n.ID] = n
		}
		m.table.SetRows(m.nodeRows())
	case stateMsg:
		m.state = msg.SimulationStateRow
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

func (m tuiModel) nodeRows() []table.Row {
	nodes := make([]telemetry.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	rows := make([]table.Row, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, table.Row{
			n.Name,
			string(n.Type),
			n.IPAddress,
			string(n.Status),
			fmt.Sprintf("%.1f", n.CPU),
			fmt.Sprintf("%.1f", n.Memory),
			fmt.Sprintf("%.1f", n.Disk),
			fmt.Sprintf("%.1f", n.Latency),
		})
	}
	return rows
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	tableHeight := lipgloss.Height(m.table.View())
	h := m.height - m.headerHeight - tableHeight - bottomHeight - 4
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

// logContent joins the alert log, wrapped to the viewport width when wrap is on.
func (m tuiModel) logContent() string {
	if len(m.logs) == 0 {
		return "none"
	}
	lines := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			l = wordwrap.String(l, m.vp.Width)
		}
		lines = append(lines, l)
	}
	return strings.Join(lines, "\n")
}

func (m *tuiModel) refreshViewport() {
	m.vp.SetContent(m.logContent())
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	return strings.Join([]string{
		m.header,
		m.table.View(),
		divider,
		"Alerts:",
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

func (m tuiModel) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Render("netwatch-sim")
	if m.cfg == nil {
		return title
	}
	info := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		fmt.Sprintf(" cluster=%s nodes=%d tick=%s incident_rate=%.2f",
			m.cfg.ClusterID, len(m.cfg.Nodes), m.cfg.TickInterval, m.cfg.IncidentRate))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, info)
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	state := fmt.Sprintf("%sSTATE%s tick=%d %sonline=%d%s %swarning=%d%s %scritical=%d%s %soffline=%d%s alerts=%d viewers=%d",
		colorBlue, colorReset, m.state.Tick,
		colorGreen, m.state.Online, colorReset,
		colorYellow, m.state.Warning, colorReset,
		colorRed, m.state.Critical, colorReset,
		colorGray, m.state.Offline, colorReset,
		m.state.AlertsRaised, m.state.Viewers)
	return fmt.Sprintf("%s | API %s | Wrap %s | Scroll %s | Help %s",
		state, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.help))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle wrap for the alert log",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}

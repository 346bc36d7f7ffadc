package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timvw/device-patrol/internal/model"
)

// messages
type scanResultMsg struct {
	result *ScanResult
	err    error
}

type tickMsg struct{}

// TUI runs the interactive dashboard.
type TUI struct {
	Scanner         *Scanner
	Tracker         *StateTracker
	Notifier        *Notifier     // nil disables notifications
	RefreshInterval time.Duration // 0 disables auto-refresh
	ThemeName       string
}

// tuiModel implements tea.Model
type tuiModel struct {
	scanner         *Scanner
	tracker         *StateTracker
	notifier        *Notifier
	ctx             context.Context
	refreshInterval time.Duration

	reports []model.Report
	table   table.Model
	styles  styles

	// notifications can be muted at runtime
	notify bool

	// announce reports every device after a manual rescan, not only changes
	announce bool

	// dimensions
	width  int
	height int

	// status
	scanning  bool
	message   string
	scanCount int
}

var columns = []table.Column{
	{Title: " ", Width: 2},
	{Title: "Device", Width: 24},
	{Title: "Kind", Width: 6},
	{Title: "State", Width: 22},
	{Title: "Held by", Width: 18},
	{Title: "Checked", Width: 10},
}

func newTUIModel(ctx context.Context, t *TUI) *tuiModel {
	st := newStyles(ThemeByName(t.ThemeName))
	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	tbl.SetStyles(st.table)

	tracker := t.Tracker
	if tracker == nil {
		tracker = NewStateTracker()
	}
	return &tuiModel{
		scanner:         t.Scanner,
		tracker:         tracker,
		notifier:        t.Notifier,
		ctx:             ctx,
		refreshInterval: t.RefreshInterval,
		table:           tbl,
		styles:          st,
		notify:          t.Notifier != nil,
	}
}

func (t *TUI) Run(ctx context.Context) error {
	p := tea.NewProgram(newTUIModel(ctx, t), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *tuiModel) Init() tea.Cmd {
	m.scanning = true
	return m.doScan()
}

// scheduleTick returns a tea.Cmd that sends a tickMsg after the refresh interval.
// Returns nil if auto-refresh is disabled (interval <= 0).
func (m *tuiModel) scheduleTick() tea.Cmd {
	if m.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *tuiModel) doScan() tea.Cmd {
	scanner := m.scanner
	ctx := m.ctx
	return func() tea.Msg {
		result, err := scanner.Scan(ctx)
		return scanResultMsg{result: result, err: err}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title + summary + detail + status
		if h := msg.Height - 5; h > 2 {
			m.table.SetHeight(h)
		}
		m.table.SetWidth(msg.Width)
		return m, nil

	case scanResultMsg:
		m.scanning = false
		if msg.err != nil {
			m.message = fmt.Sprintf("Scan error: %v", msg.err)
		} else if msg.result != nil {
			m.applyResult(msg.result)
		}
		return m, m.scheduleTick()

	case tickMsg:
		if m.scanning {
			return m, m.scheduleTick()
		}
		m.scanning = true
		return m, m.doScan()
	}

	return m, nil
}

// applyResult stores a finished scan, reports transitions and sends
// notifications for devices that just became busy.
func (m *tuiModel) applyResult(result *ScanResult) {
	m.reports = result.Reports
	m.scanCount++

	transitions := m.tracker.Observe(result.Reports)
	var msgs []string
	for _, t := range transitions {
		if t.Previous != "" || m.announce {
			msgs = append(msgs, t.Report.Summary())
		}
	}
	m.announce = false
	if m.notify && m.notifier != nil {
		for _, err := range m.notifier.NotifyTransitions(m.ctx, transitions) {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) > 0 {
		m.message = strings.Join(msgs, " | ")
	}

	m.table.SetRows(reportRows(m.reports))
	if m.table.Cursor() >= len(m.reports) {
		m.table.SetCursor(0)
	}
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r":
		if m.scanning {
			return m, nil
		}
		// Forget what was shown so the rescan announces every current state.
		for _, r := range m.reports {
			m.tracker.Forget(r.Device)
		}
		m.announce = true
		m.scanning = true
		m.message = ""
		return m, m.doScan()

	case "n":
		if m.notifier == nil {
			m.message = "Notifications are disabled in the configuration"
			return m, nil
		}
		m.notify = !m.notify
		if m.notify {
			m.message = "Notifications on"
		} else {
			m.message = "Notifications muted"
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *tuiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Header: title + keybindings
	b.WriteString(m.styles.title.Render("Device Patrol"))
	b.WriteString("  ")
	notifyLabel := "n=notify:OFF"
	if m.notify {
		notifyLabel = "n=notify:ON"
	}
	b.WriteString(m.styles.dim.Render(fmt.Sprintf("↑↓=select  r=rescan  %s  q=quit", notifyLabel)))
	if m.scanning {
		b.WriteString("  ")
		b.WriteString(m.styles.unknown.Render("scanning..."))
	}
	b.WriteString("\n")

	if len(m.reports) == 0 {
		if m.scanning {
			b.WriteString("  Scanning devices...\n")
		} else {
			b.WriteString("  No capture devices found.\n")
		}
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	// Summary line
	busy, failed := 0, 0
	for _, r := range m.reports {
		if r.State.Busy() {
			busy++
		}
		if r.State == model.StateError {
			failed++
		}
	}
	summary := fmt.Sprintf("  %d devices | %d busy | %d errors | scan #%d",
		len(m.reports), busy, failed, m.scanCount)
	b.WriteString(m.styles.dim.Render(summary))
	b.WriteString("\n")

	if detail := m.selectedDetail(); detail != "" {
		b.WriteString("  ")
		b.WriteString(detail)
		b.WriteString("\n")
	}

	// Status message
	if m.message != "" {
		b.WriteString(m.styles.status.Render("  " + m.message))
		b.WriteString("\n")
	}

	return b.String()
}

// selectedDetail renders the summary of the selected device, with its error
// and attribution warnings.
func (m *tuiModel) selectedDetail() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.reports) {
		return ""
	}
	r := m.reports[i]
	line := m.styles.stateStyle(r.State).Render(r.Summary())
	if len(r.Warnings) > 0 {
		line += m.styles.dim.Render("  (" + strings.Join(r.Warnings, "; ") + ")")
	}
	return line
}

func reportRows(reports []model.Report) []table.Row {
	rows := make([]table.Row, len(reports))
	for i, r := range reports {
		rows[i] = table.Row{
			stateIcon(r.State),
			r.Device,
			string(r.Kind),
			string(r.State),
			r.IgnoredApp,
			r.CheckedAt.Local().Format(time.TimeOnly),
		}
	}
	return rows
}

func stateIcon(s model.State) string {
	switch s {
	case model.StateNotInUse:
		return "✓"
	case model.StateInUseByIgnoredApp:
		return "·"
	case model.StateInUseByUnknown:
		return "⚠"
	default:
		return "✗"
	}
}

package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pacesim/internal/analysis"
	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/pacing"
)

const historyCapacity = 600

// PaceMsg delivers one pace event to the monitor.
type PaceMsg pacing.PaceEvent

// DoneMsg reports that the pacing loop has returned.
type DoneMsg struct {
	Err     error
	Summary string
}

// Monitor follows a pacing loop through its event channel.
type Monitor struct {
	events    <-chan pacing.PaceEvent
	modelName string
	names     []string
	tolerance float64

	loop     pacing.Loop
	pace     int
	total    int
	mrms     []float64
	apd      []float64
	state    dynamo.State
	summary  *analysis.Summary
	lastMRMS float64
	lastAPD  float64

	done     bool
	err      error
	result   string
	theme    Theme
	st       styles
	showHelp bool
}

// NewMonitor returns a monitor reading events. The pacing loop should
// publish to events through a pacing.ChannelObserver and send a DoneMsg to
// the program when it returns.
func NewMonitor(modelName string, names []string, tolerance float64, events <-chan pacing.PaceEvent) Monitor {
	return Monitor{
		events:    events,
		modelName: modelName,
		names:     names,
		tolerance: tolerance,
		mrms:      make([]float64, 0, historyCapacity),
		apd:       make([]float64, 0, historyCapacity),
		lastMRMS:  math.NaN(),
		lastAPD:   math.NaN(),
		theme:     ThemeDefault,
		st:        defaultStyles,
	}
}

func (m Monitor) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan pacing.PaceEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return PaceMsg(ev)
	}
}

// Update records pace events and handles keys.
func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "t":
			m.theme = m.theme.next()
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case PaceMsg:
		m.record(pacing.PaceEvent(msg))
		return m, waitForEvent(m.events)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.result = msg.Summary
	}
	return m, nil
}

func (m *Monitor) record(ev pacing.PaceEvent) {
	m.loop = ev.Loop
	m.pace = ev.Pace
	m.total = ev.Total
	m.state = ev.State
	if ev.Summary != nil {
		s := *ev.Summary
		m.summary = &s
	}
	if !math.IsNaN(ev.MRMS) {
		m.lastMRMS = ev.MRMS
		m.mrms = appendCapped(m.mrms, ev.MRMS)
	}
	if !math.IsNaN(ev.APD) {
		m.lastAPD = ev.APD
		m.apd = appendCapped(m.apd, ev.APD)
	}
}

func appendCapped(s []float64, v float64) []float64 {
	if len(s) == historyCapacity {
		copy(s, s[1:])
		s = s[:historyCapacity-1]
	}
	return append(s, v)
}

// View renders the monitor.
func (m Monitor) View() string {
	st := m.st
	var s strings.Builder

	s.WriteString(st.header.Render(strings.ToUpper(m.modelName)) + "\n")
	status := "PACING"
	switch {
	case m.done && m.err != nil:
		status = st.bad.Render("FAILED: " + m.err.Error())
	case m.done:
		status = st.good.Render("DONE")
	case m.pace == 0:
		status = "WAITING"
	}
	if m.loop != "" {
		status += "  " + st.label.Render(string(m.loop))
	}
	s.WriteString(status + "\n\n")

	if m.total > 0 {
		frac := float64(m.pace) / float64(m.total)
		s.WriteString(progressBar(st, frac, 30) + fmt.Sprintf(" %d/%d\n\n", m.pace, m.total))
	}

	if chart := Plot(Log10Series(m.mrms), 8, 50, "log10 MRMS"); chart != "" {
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if len(m.apd) > 1 {
		s.WriteString(st.label.Render("APD") + SparklineChart(m.apd, 40) + "\n")
	}

	s.WriteString(st.label.Render("MRMS") + st.value.Render(formatValue(m.lastMRMS, "%.3e")))
	if m.tolerance > 0 {
		s.WriteString(st.label.Render("  tolerance") + st.value.Render(fmt.Sprintf("%.1e", m.tolerance)))
	}
	s.WriteString("\n")
	s.WriteString(st.label.Render("APD") + st.value.Render(formatValue(m.lastAPD, "%.1f")) + "\n")

	if m.summary != nil {
		s.WriteString(st.label.Render("classifier") + fmt.Sprintf("%s %d  %s %d  %s %d  mean PMCC %s\n",
			st.good.Render("ok"), m.summary.OK,
			st.warn.Render("undefined"), m.summary.Undefined,
			st.bad.Render("unstable"), m.summary.Unstable,
			formatValue(m.summary.MeanPMCC, "%.4f")))
	}

	if len(m.state) > 0 {
		s.WriteString("\nSTATE\n")
		for i, v := range m.state {
			name := fmt.Sprintf("x%d", i)
			if i < len(m.names) {
				name = m.names[i]
			}
			s.WriteString("  " + st.label.Render(name) + st.value.Render(fmt.Sprintf("% .6g", v)) + "\n")
		}
	}

	if m.result != "" {
		s.WriteString("\n" + m.result + "\n")
	}
	s.WriteString(st.help.Render("T:Theme ?:Help Q:Quit"))

	view := st.panel.Render(s.String())
	if m.showHelp {
		help := lipgloss.JoinVertical(lipgloss.Left,
			"T - Cycle color themes ("+strings.Join(ThemeNames(), ", ")+")",
			"? - Toggle this help",
			"Q - Quit; pacing stops with the program",
		)
		return st.panel.Render(help) + "\n" + view
	}
	return view
}

func formatValue(v float64, format string) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

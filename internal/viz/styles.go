package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pacesim/internal/analysis"
)

type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	graph  lipgloss.Style
	panel  lipgloss.Style
	help   lipgloss.Style
	good   lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		graph:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(1, 2),
		help: lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		good: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		warn: lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		bad:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}

var defaultStyles = newStyles(ThemeDefault)

// StatusBadge renders a verdict status in its theme color.
func StatusBadge(s analysis.Status) string {
	switch s {
	case analysis.StatusOK:
		return defaultStyles.good.Render(s.String())
	case analysis.StatusUnstable:
		return defaultStyles.bad.Render(s.String())
	default:
		return defaultStyles.warn.Render(s.String())
	}
}

// ConvergedBadge renders the outcome of a steady-state run.
func ConvergedBadge(converged bool) string {
	if converged {
		return defaultStyles.good.Render("converged")
	}
	return defaultStyles.warn.Render("not converged")
}

// ProgressBar renders fraction in [0, 1] as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	return progressBar(defaultStyles, fraction, width)
}

func progressBar(st styles, fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return st.good.Render(bar)
	case fraction > 0.4:
		return st.warn.Render(bar)
	}
	return st.bad.Render(bar)
}

// SparklineChart renders values as a one-line sparkline, sampling to width.
// Non-finite values are drawn as gaps.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 || math.IsInf(rng, 0) {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		v := values[i*step]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteRune(' ')
			continue
		}
		idx := int((v - lo) / rng * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		b.WriteRune(chars[idx])
	}
	return b.String()
}

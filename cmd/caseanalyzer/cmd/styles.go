package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#9CA3AF")
)

func style(fg lipgloss.Color) lipgloss.Style {
	if noColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(fg)
}

func headerStyle() lipgloss.Style  { return style(colorPrimary).Bold(!noColor) }
func successStyle() lipgloss.Style { return style(colorSuccess) }
func warningStyle() lipgloss.Style { return style(colorWarning) }
func errorStyle() lipgloss.Style   { return style(colorError).Bold(!noColor) }
func mutedStyle() lipgloss.Style   { return style(colorMuted) }

// statusStyle colors a job status.
func statusStyle(s core.JobStatus) lipgloss.Style {
	switch s {
	case core.JobCompleted:
		return successStyle()
	case core.JobFailed:
		return errorStyle()
	case core.JobProcessing:
		return warningStyle()
	default:
		return mutedStyle()
	}
}

// progressBar renders pct as a fixed-width bar.
func progressBar(pct, width int) string {
	pct = max(0, min(pct, 100))
	filled := pct * width / 100
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return style(colorPrimary).Render(string(bar))
}

package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/neurofold/internal/logtypes"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Faint(true)
	sepStyle      = lipgloss.NewStyle().Faint(true)
	plainStyle    = lipgloss.NewStyle()
	noiseStyle    = lipgloss.NewStyle().Faint(true)
	foldStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	bestStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	metricStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	matchStyle    = lipgloss.NewStyle().Background(lipgloss.Color("226")).Foreground(lipgloss.Color("0"))
	searchBadge   = lipgloss.NewStyle().Background(lipgloss.Color("226")).Foreground(lipgloss.Color("0")).Padding(0, 1)
	relevantBadge = lipgloss.NewStyle().Background(lipgloss.Color("34")).Foreground(lipgloss.Color("15")).Padding(0, 1)
	allBadge      = lipgloss.NewStyle().Background(lipgloss.Color("33")).Foreground(lipgloss.Color("15")).Padding(0, 1)
)

// FormatLine renders a line as "<timestamp>  <message>".
func FormatLine(l logtypes.AnnotatedLine) string {
	return fmt.Sprintf("%9.1fs  %s", l.Timestamp, strings.TrimSpace(l.Message))
}

// LineStyle picks the display style for a line.
func LineStyle(l logtypes.AnnotatedLine) lipgloss.Style {
	switch {
	case !l.Relevant:
		return noiseStyle
	case strings.Contains(l.Message, "New best"), strings.Contains(l.Message, "Saved submission"):
		return bestStyle
	case strings.Contains(l.Message, "Step "):
		return plainStyle
	case l.Rule == "fold_header":
		return foldStyle
	case l.Rule == "epoch_summary":
		return metricStyle
	default:
		return plainStyle
	}
}

// WriteLines prints lines one per row, styled when color is set.
func WriteLines(w io.Writer, lines []logtypes.AnnotatedLine, color bool) error {
	for _, l := range lines {
		text := FormatLine(l)
		if color {
			text = LineStyle(l).Render(text)
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
	}
	return nil
}

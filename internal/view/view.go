// Package view renders parse results in the terminal.
package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ppiankov/neurofold/internal/engine"
	"github.com/ppiankov/neurofold/internal/logtypes"
	"github.com/ppiankov/neurofold/internal/report"
)

// Model is the bubbletea model for the interactive log view. It starts on the
// relevant lines only; "a" toggles the full sequence.
type Model struct {
	res    *engine.Result
	source string

	showAll   bool
	lines     []logtypes.AnnotatedLine
	scrollOff int

	// search
	searching   bool
	searchInput string
	searchRegex *regexp.Regexp
	searchIdx   int
	matches     []int

	// gg detection
	lastGPress time.Time

	width  int
	height int

	quitting bool
}

// New creates a view model over res.
func New(res *engine.Result, source string) Model {
	m := Model{
		res:    res,
		source: source,
		width:  80,
		height: 24,
	}
	m.lines = res.RelevantLines()
	return m
}

// Run starts the interactive view and blocks until the user quits.
func Run(res *engine.Result, source string) error {
	_, err := tea.NewProgram(New(res, source), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scrollOff = clamp(m.scrollOff, 0, m.maxScroll())
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "a":
		m.showAll = !m.showAll
		if m.showAll {
			m.lines = m.res.Lines
		} else {
			m.lines = m.res.RelevantLines()
		}
		m.updateSearchMatches()
		m.searchIdx = 0
		m.scrollOff = clamp(m.scrollOff, 0, m.maxScroll())

	case "j", "down":
		m.scrollOff = clamp(m.scrollOff+1, 0, m.maxScroll())

	case "k", "up":
		m.scrollOff = clamp(m.scrollOff-1, 0, m.maxScroll())

	case "d", "pgdown":
		m.scrollOff = clamp(m.scrollOff+m.logPaneHeight()/2, 0, m.maxScroll())

	case "u", "pgup":
		m.scrollOff = clamp(m.scrollOff-m.logPaneHeight()/2, 0, m.maxScroll())

	case "G", "end":
		m.scrollOff = m.maxScroll()

	case "home":
		m.scrollOff = 0

	case "g":
		now := time.Now()
		if now.Sub(m.lastGPress) < 500*time.Millisecond {
			m.scrollOff = 0
			m.lastGPress = time.Time{}
		} else {
			m.lastGPress = now
		}

	case "/":
		m.searching = true
		m.searchInput = ""

	case "n":
		m.nextMatch(1)

	case "N":
		m.nextMatch(-1)
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		re, err := regexp.Compile("(?i)" + m.searchInput)
		if err == nil && m.searchInput != "" {
			m.searchRegex = re
			m.updateSearchMatches()
			m.searchIdx = 0
			if len(m.matches) > 0 {
				m.scrollOff = clamp(m.matches[0]-m.logPaneHeight()/2, 0, m.maxScroll())
			}
		}

	case "esc":
		m.searching = false
		m.searchInput = ""
		m.searchRegex = nil
		m.matches = nil

	case "backspace":
		if len(m.searchInput) > 0 {
			m.searchInput = m.searchInput[:len(m.searchInput)-1]
		}

	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.searchInput += string(msg.Runes)
		case tea.KeySpace:
			m.searchInput += " "
		}
	}

	return m, nil
}

func (m *Model) updateSearchMatches() {
	m.matches = nil
	if m.searchRegex == nil {
		return
	}
	for i, l := range m.lines {
		if m.searchRegex.MatchString(l.Message) {
			m.matches = append(m.matches, i)
		}
	}
}

func (m *Model) nextMatch(dir int) {
	if len(m.matches) == 0 {
		return
	}
	m.searchIdx = (m.searchIdx + dir + len(m.matches)) % len(m.matches)
	m.scrollOff = clamp(m.matches[m.searchIdx]-m.logPaneHeight()/2, 0, m.maxScroll())
}

func (m Model) logPaneHeight() int {
	// header(1) + summary(1) + separator(1) + status(1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) maxScroll() int {
	max := len(m.lines) - m.logPaneHeight()
	if max < 0 {
		return 0
	}
	return max
}

// View renders the log view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	mode := "relevant"
	if m.showAll {
		mode = "all"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("neurofold view | %s | %d/%d lines (%s)",
		m.source, len(m.lines), len(m.res.Lines), mode)))
	b.WriteString("\n")

	sum := m.res.Summary
	b.WriteString(labelStyle.Render(" Duration: "))
	b.WriteString(report.FormatDuration(sum.RunDurationSeconds))
	b.WriteString(labelStyle.Render("  Best OOF F1: "))
	b.WriteString(report.FormatScore(sum.BestOutOfFoldF1))
	b.WriteString(labelStyle.Render("  Threshold: "))
	b.WriteString(report.FormatScore(sum.BestThreshold))
	b.WriteString(labelStyle.Render("  Records: "))
	b.WriteString(fmt.Sprintf("%d", len(m.res.Metrics)))
	b.WriteString("\n")

	b.WriteString(sepStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	paneH := m.logPaneHeight()
	start := m.scrollOff
	end := start + paneH
	if end > len(m.lines) {
		end = len(m.lines)
	}

	matchSet := make(map[int]bool, len(m.matches))
	for _, idx := range m.matches {
		matchSet[idx] = true
	}

	for i := start; i < end; i++ {
		text := ansi.Truncate(FormatLine(m.lines[i]), m.width, "")
		if matchSet[i] {
			b.WriteString(matchStyle.Render(text))
		} else {
			b.WriteString(LineStyle(m.lines[i]).Render(text))
		}
		b.WriteString("\n")
	}
	for i := end - start; i < paneH; i++ {
		b.WriteString("\n")
	}

	var status strings.Builder
	if m.searching {
		status.WriteString(searchBadge.Render("/" + m.searchInput))
	} else if m.searchRegex != nil {
		pos := 0
		if len(m.matches) > 0 {
			pos = m.searchIdx + 1
		}
		status.WriteString(searchBadge.Render(fmt.Sprintf("[%d/%d] /%s", pos, len(m.matches), strings.TrimPrefix(m.searchRegex.String(), "(?i)"))))
	}
	if status.Len() > 0 {
		status.WriteString(" ")
	}
	if m.showAll {
		status.WriteString(allBadge.Render("ALL"))
	} else {
		status.WriteString(relevantBadge.Render("RELEVANT"))
	}
	b.WriteString(padLeft(status.String(), m.width))

	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func padLeft(s string, w int) string {
	n := lipgloss.Width(s)
	if n >= w {
		return s
	}
	return strings.Repeat(" ", w-n) + s
}

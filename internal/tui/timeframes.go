package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trendboard/internal/domain"
)

// TimeframesModel shows the per-timeframe signals behind one assessment.
type TimeframesModel struct {
	analyses []*domain.Analysis
	symbol   string
	width    int
	height   int
}

// NewTimeframesModel creates a new timeframe breakdown model.
func NewTimeframesModel() TimeframesModel {
	return TimeframesModel{}
}

// Init has nothing to fetch; assessments arrive from the dashboard.
func (m TimeframesModel) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages.
func (m TimeframesModel) Update(msg tea.Msg) (TimeframesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analysesMsg:
		m.analyses = []*domain.Analysis(msg)
		if m.current() == nil && len(m.analyses) > 0 {
			m.symbol = m.analyses[0].Symbol
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Next):
			m.step(1)
		case key.Matches(msg, DefaultKeyMap.Prev):
			m.step(-1)
		}
	}
	return m, nil
}

// View renders the breakdown table for the selected instrument.
func (m TimeframesModel) View() string {
	a := m.current()
	if a == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			"",
			HeaderStyle.Render("  Timeframe Breakdown"),
			"",
			SubtextStyle.Render("  No assessment yet. Waiting for the first analysis pass."),
		)
	}

	barWidth := max(m.width/4, 10)
	lines := []string{
		HeaderStyle.Render(fmt.Sprintf("  %s  ·  %s", a.Symbol, a.Source)),
		"  " + FormatAssessment(a, barWidth),
		"",
		SubtextStyle.Render("  Timeframe  Weight  Trend      Signal   Strength    Support   Resistance"),
		SubtextStyle.Render("  " + strings.Repeat("─", 72)),
	}
	for _, s := range a.Signals {
		lines = append(lines, fmt.Sprintf("  %-9s  %5d%%  %-9s  %-7s  %7.2f%%  %9s  %11s",
			s.Timeframe,
			s.Timeframe.Weight(),
			s.Trend,
			FormatAction(s.Signal),
			s.Strength,
			formatLevel(s.Support),
			formatLevel(s.Resistance),
		))
	}
	lines = append(lines, "",
		SubtextStyle.Render(fmt.Sprintf("  generated %s  ·  ←/→ switch instrument", a.GeneratedAt.Format("15:04:05 MST"))),
	)

	return BorderStyle.Width(max(m.width-2, 40)).Render(strings.Join(lines, "\n"))
}

// SetSize updates the model dimensions.
func (m *TimeframesModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Select focuses the breakdown on symbol. Empty input keeps the current one.
func (m *TimeframesModel) Select(symbol string) {
	if symbol != "" {
		m.symbol = symbol
	}
}

// Symbol returns the instrument being shown (for testing).
func (m TimeframesModel) Symbol() string { return m.symbol }

func (m TimeframesModel) current() *domain.Analysis {
	for _, a := range m.analyses {
		if a.Symbol == m.symbol {
			return a
		}
	}
	return nil
}

func (m *TimeframesModel) step(delta int) {
	n := len(m.analyses)
	if n == 0 {
		return
	}
	idx := 0
	for i, a := range m.analyses {
		if a.Symbol == m.symbol {
			idx = i
			break
		}
	}
	idx = ((idx+delta)%n + n) % n
	m.symbol = m.analyses[idx].Symbol
}

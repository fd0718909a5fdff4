package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trendboard/internal/domain"
)

// Dashboard message types.
type quotesMsg []*domain.InstrumentQuote
type quotesErrMsg struct{ err error }
type analysesMsg []*domain.Analysis
type analysesErrMsg struct{ err error }
type dashTickMsg time.Time

const dashRefreshInterval = 10 * time.Second

// DashboardModel is the Bubble Tea model for the live dashboard screen.
type DashboardModel struct {
	services Services
	quotes   []*domain.InstrumentQuote
	analyses []*domain.Analysis
	cursor   int
	loading  bool
	err      error
	width    int
	height   int
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(svc Services) DashboardModel {
	return DashboardModel{
		services: svc,
		loading:  true,
	}
}

// Init fires initial data fetch commands.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchQuotesCmd(),
		m.fetchAnalysesCmd(),
		m.tickCmd(),
	)
}

// Update handles incoming messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case quotesMsg:
		m.quotes = []*domain.InstrumentQuote(msg)
		m.loading = false
		m.err = nil
		return m, nil

	case quotesErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case analysesMsg:
		m.analyses = []*domain.Analysis(msg)
		if m.cursor >= len(m.analyses) {
			m.cursor = max(len(m.analyses)-1, 0)
		}
		return m, nil

	case analysesErrMsg:
		// Quotes still render without assessments.
		return m, nil

	case dashTickMsg:
		return m, tea.Batch(
			m.fetchQuotesCmd(),
			m.fetchAnalysesCmd(),
			m.tickCmd(),
		)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.analyses)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, tea.Batch(m.refreshQuotesCmd(), m.analyzeCmd())
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.loading && len(m.quotes) == 0 {
		return SubtextStyle.Render("Loading quotes...")
	}
	if m.err != nil && len(m.quotes) == 0 {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	quoteWidth := m.width*2/3 - 2
	if quoteWidth < 40 {
		quoteWidth = 40
	}
	heatWidth := m.width - quoteWidth - 4
	if heatWidth < 18 {
		heatWidth = 18
	}

	quoteBox := BorderStyle.Width(quoteWidth).Render(m.renderQuoteTable())
	heatBox := BorderStyle.Width(heatWidth).Render(m.renderHeatMapSection(heatWidth))
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, quoteBox, heatBox)

	assessBox := BorderStyle.Width(max(m.width-2, 40)).Render(m.renderAssessments())

	return lipgloss.JoinVertical(lipgloss.Left, topRow, assessBox)
}

// SetSize updates the model dimensions.
func (m *DashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Quotes returns the current quotes (for testing).
func (m DashboardModel) Quotes() []*domain.InstrumentQuote { return m.quotes }

// Analyses returns the current assessments (for testing).
func (m DashboardModel) Analyses() []*domain.Analysis { return m.analyses }

// Selected returns the symbol under the cursor, or "" before any assessment arrives.
func (m DashboardModel) Selected() string {
	if m.cursor < 0 || m.cursor >= len(m.analyses) {
		return ""
	}
	return m.analyses[m.cursor].Symbol
}

func (m DashboardModel) renderQuoteTable() string {
	lines := []string{
		HeaderStyle.Render("  Quotes"),
		SubtextStyle.Render("  Symbol           Price    Change"),
		SubtextStyle.Render("  " + strings.Repeat("─", 40)),
	}
	for _, q := range m.quotes {
		lines = append(lines, "  "+FormatQuote(q))
	}
	if len(m.quotes) == 0 {
		lines = append(lines, SubtextStyle.Render("  No quote data available"))
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderHeatMapSection(width int) string {
	return HeaderStyle.Render("  Heat Map") + "\n" + RenderHeatMap(m.quotes, width-2)
}

func (m DashboardModel) renderAssessments() string {
	lines := []string{HeaderStyle.Render("  Trend Assessments")}
	barWidth := m.width / 4
	if barWidth < 10 {
		barWidth = 10
	}
	for i, a := range m.analyses {
		prefix := "  "
		if i == m.cursor {
			prefix = SelectedStyle.Render("> ")
		}
		lines = append(lines, prefix+FormatAssessment(a, barWidth))
	}
	if len(m.analyses) == 0 {
		lines = append(lines, SubtextStyle.Render("  "+domain.LoadingSignalInfo.Status+"..."))
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) fetchQuotesCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Quotes == nil {
			return quotesErrMsg{err: fmt.Errorf("quote service not available")}
		}
		if quotes := m.services.Quotes.Latest(); len(quotes) > 0 {
			return quotesMsg(quotes)
		}
		quotes, err := m.services.Quotes.Refresh(context.Background(), false)
		if err != nil {
			return quotesErrMsg{err: err}
		}
		return quotesMsg(quotes)
	}
}

func (m DashboardModel) refreshQuotesCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Quotes == nil {
			return quotesErrMsg{err: fmt.Errorf("quote service not available")}
		}
		quotes, err := m.services.Quotes.Refresh(context.Background(), false)
		if err != nil {
			return quotesErrMsg{err: err}
		}
		return quotesMsg(quotes)
	}
}

func (m DashboardModel) fetchAnalysesCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Analyses == nil {
			return analysesErrMsg{err: fmt.Errorf("analysis service not available")}
		}
		if analyses := m.services.Analyses.ListAnalyses(); len(analyses) > 0 {
			return analysesMsg(analyses)
		}
		return m.analyzeCmd()()
	}
}

func (m DashboardModel) analyzeCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Analyses == nil {
			return analysesErrMsg{err: fmt.Errorf("analysis service not available")}
		}
		analyses, err := m.services.Analyses.AnalyzeAll(context.Background())
		if err != nil {
			return analysesErrMsg{err: err}
		}
		return analysesMsg(analyses)
	}
}

func (m DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(dashRefreshInterval, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}

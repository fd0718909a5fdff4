package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trendboard/internal/domain"
)

// Commentary message types.
type commentaryReplyMsg struct {
	symbol string
	text   string
}
type commentaryErrMsg struct{ err error }

type commentaryEntry struct {
	Symbol  string
	Content string
	Time    time.Time
}

// CommentaryModel asks the advisor for a written take on an instrument.
type CommentaryModel struct {
	services Services
	entries  []commentaryEntry
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	waiting  bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewCommentaryModel creates a new commentary model.
func NewCommentaryModel(svc Services) CommentaryModel {
	ti := textinput.New()
	ti.Placeholder = "Symbol, e.g. BTC or EUR/USD"
	ti.CharLimit = 16
	ti.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SpinnerColor)

	return CommentaryModel{
		services: svc,
		input:    ti,
		spinner:  sp,
	}
}

// Init initializes the commentary model.
func (m CommentaryModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (m CommentaryModel) Update(msg tea.Msg) (CommentaryModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case commentaryReplyMsg:
		m.entries = append(m.entries, commentaryEntry{
			Symbol:  msg.symbol,
			Content: msg.text,
			Time:    time.Now(),
		})
		m.waiting = false
		m.err = nil
		m.viewport.SetContent(m.renderEntries())
		m.viewport.GotoBottom()
		return m, nil

	case commentaryErrMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && !m.waiting {
			inst, ok := domain.LookupInstrument(m.input.Value())
			if !ok {
				m.err = fmt.Errorf("%w: %q", domain.ErrUnsupportedSymbol, strings.TrimSpace(m.input.Value()))
				return m, nil
			}
			m.input.SetValue(inst.Symbol)
			m.waiting = true
			m.err = nil
			return m, tea.Batch(
				m.commentaryCmd(inst.Symbol),
				m.spinner.Tick,
			)
		}

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the commentary screen.
func (m CommentaryModel) View() string {
	if m.services.Commentary == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			"",
			HeaderStyle.Render("  Market Commentary"),
			"",
			SubtextStyle.Render("  Commentary not available. Set OPENAI_API_KEY to enable."),
		)
	}

	rule := SubtextStyle.Render(strings.Repeat("─", max(m.width-2, 10)))
	sections := []string{HeaderStyle.Render("  Market Commentary"), rule}

	if !m.ready {
		m.initViewport()
	}
	sections = append(sections, m.viewport.View(), rule)

	if m.waiting {
		sections = append(sections, fmt.Sprintf("  %s Writing commentary for %s...", m.spinner.View(), m.input.Value()))
	} else {
		if m.err != nil {
			sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		}
		sections = append(sections, "  "+m.input.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the model dimensions.
func (m *CommentaryModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = max(w-6, 10)
	m.ready = false
}

// Focus gives focus to the symbol input.
func (m *CommentaryModel) Focus() {
	m.input.Focus()
}

// Blur removes focus from the symbol input.
func (m *CommentaryModel) Blur() {
	m.input.Blur()
}

// Prefill seeds the input with symbol when the user has not typed anything.
func (m *CommentaryModel) Prefill(symbol string) {
	if symbol != "" && strings.TrimSpace(m.input.Value()) == "" {
		m.input.SetValue(symbol)
	}
}

// IsWaiting returns whether a commentary request is in flight (for testing).
func (m CommentaryModel) IsWaiting() bool { return m.waiting }

// EntryCount returns the number of received commentaries (for testing).
func (m CommentaryModel) EntryCount() int { return len(m.entries) }

func (m *CommentaryModel) initViewport() {
	vpHeight := max(m.height-6, 3)
	vpWidth := max(m.width-2, 10)
	m.viewport = viewport.New(vpWidth, vpHeight)
	m.viewport.SetContent(m.renderEntries())
	m.ready = true
}

func (m CommentaryModel) renderEntries() string {
	if len(m.entries) == 0 {
		return SubtextStyle.Render("  Enter a symbol below and press enter.")
	}

	var lines []string
	for _, e := range m.entries {
		lines = append(lines, fmt.Sprintf("  %s  %s",
			SubtextStyle.Render(e.Time.Format("15:04")),
			SymbolMsgStyle.Render(e.Symbol),
		))
		for _, line := range strings.Split(e.Content, "\n") {
			lines = append(lines, "         "+AssistantMsgStyle.Render(line))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m CommentaryModel) commentaryCmd(symbol string) tea.Cmd {
	return func() tea.Msg {
		if m.services.Commentary == nil {
			return commentaryErrMsg{err: fmt.Errorf("commentary not available")}
		}
		text, err := m.services.Commentary.Commentary(context.Background(), symbol)
		if err != nil {
			return commentaryErrMsg{err: err}
		}
		return commentaryReplyMsg{symbol: symbol, text: text}
	}
}

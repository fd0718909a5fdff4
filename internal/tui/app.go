package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabDashboard Tab = iota
	TabTimeframes
	TabCommentary
)

var tabNames = []string{"1:Dashboard", "2:Timeframes", "3:Commentary"}

// AppModel is the root Bubble Tea model that manages tab navigation and child screens.
type AppModel struct {
	services   Services
	activeTab  Tab
	dashboard  DashboardModel
	timeframes TimeframesModel
	commentary CommentaryModel
	width      int
	height     int
	quitting   bool
}

// NewAppModel creates the root application model with all child screens.
func NewAppModel(svc Services) AppModel {
	return AppModel{
		services:   svc,
		activeTab:  TabDashboard,
		dashboard:  NewDashboardModel(svc),
		timeframes: NewTimeframesModel(),
		commentary: NewCommentaryModel(svc),
	}
}

// Init initializes all child models.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.dashboard.Init(),
		m.timeframes.Init(),
		m.commentary.Init(),
	)
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case tea.KeyMsg:
		// The commentary input swallows plain keys.
		if m.activeTab != TabCommentary || msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab ||
			msg.String() == "ctrl+c" || (msg.String() >= "1" && msg.String() <= "3") {

			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				if m.activeTab == TabCommentary && msg.String() == "q" {
					break
				}
				m.quitting = true
				return m, tea.Quit

			case key.Matches(msg, DefaultKeyMap.Tab):
				m.switchTab(Tab((int(m.activeTab) + 1) % len(tabNames)))
				return m, nil

			case key.Matches(msg, DefaultKeyMap.ShiftTab):
				next := int(m.activeTab) - 1
				if next < 0 {
					next = len(tabNames) - 1
				}
				m.switchTab(Tab(next))
				return m, nil

			case msg.String() == "1":
				m.switchTab(TabDashboard)
				return m, nil
			case msg.String() == "2":
				m.switchTab(TabTimeframes)
				return m, nil
			case msg.String() == "3":
				m.switchTab(TabCommentary)
				return m, nil
			}
		}
	}

	var cmds []tea.Cmd

	switch msg.(type) {
	case analysesMsg:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		cmds = append(cmds, cmd)
		m.timeframes, cmd = m.timeframes.Update(msg)
		cmds = append(cmds, cmd)

	case quotesMsg, quotesErrMsg, analysesErrMsg, dashTickMsg:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		cmds = append(cmds, cmd)

	case commentaryReplyMsg, commentaryErrMsg:
		var cmd tea.Cmd
		m.commentary, cmd = m.commentary.Update(msg)
		cmds = append(cmds, cmd)

	default:
		switch m.activeTab {
		case TabDashboard:
			var cmd tea.Cmd
			m.dashboard, cmd = m.dashboard.Update(msg)
			cmds = append(cmds, cmd)
		case TabTimeframes:
			var cmd tea.Cmd
			m.timeframes, cmd = m.timeframes.Update(msg)
			cmds = append(cmds, cmd)
		case TabCommentary:
			var cmd tea.Cmd
			m.commentary, cmd = m.commentary.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the tab bar and active screen.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string
	switch m.activeTab {
	case TabDashboard:
		content = m.dashboard.View()
	case TabTimeframes:
		content = m.timeframes.View()
	case TabCommentary:
		content = m.commentary.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabBar(), content)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

func (m *AppModel) switchTab(tab Tab) {
	selected := m.dashboard.Selected()
	switch {
	case tab == TabTimeframes:
		m.timeframes.Select(selected)
	case tab == TabCommentary && m.activeTab != TabCommentary:
		m.commentary.Prefill(selected)
		m.commentary.Focus()
	}
	if m.activeTab == TabCommentary && tab != TabCommentary {
		m.commentary.Blur()
	}
	m.activeTab = tab
}

func (m *AppModel) propagateSize() {
	contentHeight := m.height - 2 // tab bar
	m.dashboard.SetSize(m.width, contentHeight)
	m.timeframes.SetSize(m.width, contentHeight)
	m.commentary.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	if m.services.Username != "" {
		tabs = append(tabs, SubtextStyle.Render(fmt.Sprintf("  %s", m.services.Username)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

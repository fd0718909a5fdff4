package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Tab bar styles
	TabStyle       = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle = TabStyle.Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
	InactiveTabStyle = TabStyle.
				Foreground(lipgloss.Color("#888888"))

	// Price colors
	PriceUpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	PriceDownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	PriceZeroStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	FallbackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))

	// Signal action colors
	ActionBuyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	ActionSellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	ActionNeutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))

	// General styles
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	SubtextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	BorderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555"))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	SelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	SpinnerColor  = lipgloss.Color("#7D56F4")

	// Commentary styles
	SymbolMsgStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	AssistantMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))

	// Heat map colors
	HeatGreen   = lipgloss.Color("#00FF00")
	HeatRed     = lipgloss.Color("#FF0000")
	HeatNeutral = lipgloss.Color("#555555")
)

// displayColors maps the assessment color classes to terminal colors.
var displayColors = map[string]lipgloss.Color{
	"text-green-500":  lipgloss.Color("#22C55E"),
	"text-green-400":  lipgloss.Color("#4ADE80"),
	"text-green-300":  lipgloss.Color("#86EFAC"),
	"text-red-500":    lipgloss.Color("#EF4444"),
	"text-red-400":    lipgloss.Color("#F87171"),
	"text-red-300":    lipgloss.Color("#FCA5A5"),
	"text-yellow-500": lipgloss.Color("#EAB308"),
	"text-yellow-400": lipgloss.Color("#FACC15"),
	"text-yellow-300": lipgloss.Color("#FDE047"),
	"text-gray-400":   lipgloss.Color("#9CA3AF"),
}

// DisplayColor resolves a color class, falling back to gray.
func DisplayColor(class string) lipgloss.Color {
	if c, ok := displayColors[class]; ok {
		return c
	}
	return displayColors["text-gray-400"]
}

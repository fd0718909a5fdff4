package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"trendboard/internal/domain"
)

// FormatQuote renders a quote as a single line.
func FormatQuote(q *domain.InstrumentQuote) string {
	changeStyle := PriceZeroStyle
	if q.PercentChange > 0 {
		changeStyle = PriceUpStyle
	} else if q.PercentChange < 0 {
		changeStyle = PriceDownStyle
	}

	sign := ""
	if q.PercentChange > 0 {
		sign = "+"
	}

	line := fmt.Sprintf("%-8s %12s  %s",
		q.Symbol,
		formatQuotePrice(q),
		changeStyle.Render(fmt.Sprintf("%s%.2f%%", sign, q.PercentChange)),
	)
	if q.Fallback {
		line += " " + FallbackStyle.Render("(fallback)")
	}
	return line
}

// FormatAssessment renders an analysis label, probability bar and weights.
func FormatAssessment(a *domain.Analysis, barWidth int) string {
	as := a.Assessment
	label := lipgloss.NewStyle().Foreground(DisplayColor(as.DisplayColor)).Bold(true).Render(fmt.Sprintf("%-18s", as.Label))
	return fmt.Sprintf("%-8s %s %s %3d%%  %s",
		a.Symbol,
		label,
		RenderProbabilityBar(as.SuccessProbability, as.DisplayColor, barWidth),
		as.SuccessProbability,
		SubtextStyle.Render(fmt.Sprintf("up %d / down %d", as.UptrendWeight, as.DowntrendWeight)),
	)
}

// FormatAction renders a signal action in its color.
func FormatAction(action domain.SignalAction) string {
	style := ActionNeutralStyle
	switch action {
	case domain.ActionBuy:
		style = ActionBuyStyle
	case domain.ActionSell:
		style = ActionSellStyle
	}
	return style.Render(strings.ToUpper(string(action)))
}

// RenderProbabilityBar draws a 0-100 probability in the assessment color.
func RenderProbabilityBar(probability int, colorClass string, width int) string {
	if width <= 0 {
		width = 20
	}
	bar := progress.New(
		progress.WithSolidFill(string(DisplayColor(colorClass))),
		progress.WithoutPercentage(),
		progress.WithWidth(width),
	)
	p := float64(min(max(probability, 0), 100)) / 100
	return bar.ViewAs(p)
}

// RenderHeatMap renders a colored grid showing percent change for each symbol.
func RenderHeatMap(quotes []*domain.InstrumentQuote, width int) string {
	if len(quotes) == 0 {
		return SubtextStyle.Render("No quote data")
	}

	cellWidth := 9
	cols := width / cellWidth
	if cols < 1 {
		cols = 1
	}

	var rows []string
	var row []string
	for i, q := range quotes {
		bg := HeatNeutral
		if q.PercentChange > 0 {
			bg = heatColorScale(q.PercentChange, 5, HeatGreen)
		} else if q.PercentChange < 0 {
			bg = heatColorScale(-q.PercentChange, 5, HeatRed)
		}

		cell := lipgloss.NewStyle().
			Background(bg).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Width(cellWidth - 1).
			Align(lipgloss.Center).
			Render(q.Symbol)

		row = append(row, cell)
		if (i+1)%cols == 0 || i == len(quotes)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}

	return strings.Join(rows, "\n")
}

// heatColorScale produces a color scaled by magnitude.
func heatColorScale(magnitude, maxMagnitude float64, baseColor lipgloss.Color) lipgloss.Color {
	intensity := magnitude / maxMagnitude
	if intensity > 1 {
		intensity = 1
	}
	if intensity < 0.05 {
		return HeatNeutral
	}
	return baseColor
}

// formatQuotePrice shows forex pairs as plain rates and everything else in USD.
func formatQuotePrice(q *domain.InstrumentQuote) string {
	if q.Kind == domain.KindForex {
		return fmt.Sprintf("%.4f", q.Price)
	}
	return formatUSD(q.Price)
}

func formatUSD(v float64) string {
	if v >= 1000 {
		return "$" + addCommas(fmt.Sprintf("%.0f", v))
	}
	if v >= 1 {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("$%.4f", v)
}

func addCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	return result.String()
}

func formatLevel(v float64) string {
	if v == 0 {
		return "-"
	}
	if v >= 100 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

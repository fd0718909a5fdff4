package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"trendboard/internal/domain"
)

func TestTimeframesDefaultsToFirstAnalysis(t *testing.T) {
	m := NewTimeframesModel()
	m, _ = m.Update(analysesMsg{testAnalysis("BTC"), testAnalysis("ETH")})
	if m.Symbol() != "BTC" {
		t.Fatalf("expected BTC, got %q", m.Symbol())
	}
}

func TestTimeframesKeepsSelectionAcrossRefresh(t *testing.T) {
	m := NewTimeframesModel()
	m.Select("ETH")
	m, _ = m.Update(analysesMsg{testAnalysis("BTC"), testAnalysis("ETH")})
	if m.Symbol() != "ETH" {
		t.Fatalf("expected ETH kept, got %q", m.Symbol())
	}
	m.Select("")
	if m.Symbol() != "ETH" {
		t.Fatalf("empty select must not clear, got %q", m.Symbol())
	}
}

func TestTimeframesCyclesInstruments(t *testing.T) {
	m := NewTimeframesModel()
	m, _ = m.Update(analysesMsg{testAnalysis("BTC"), testAnalysis("ETH"), testAnalysis("SOL")})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.Symbol() != "ETH" {
		t.Fatalf("expected ETH, got %q", m.Symbol())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.Symbol() != "SOL" {
		t.Fatalf("expected wrap to SOL, got %q", m.Symbol())
	}
}

func TestTimeframesViewEmpty(t *testing.T) {
	m := NewTimeframesModel()
	m.SetSize(120, 40)
	if !strings.Contains(m.View(), "No assessment yet") {
		t.Fatalf("unexpected view %q", m.View())
	}
}

func TestTimeframesViewShowsEveryTimeframe(t *testing.T) {
	m := NewTimeframesModel()
	m.SetSize(140, 40)
	m, _ = m.Update(analysesMsg{testAnalysis("EUR/USD", domain.TrendUp, domain.TrendDown)})

	view := m.View()
	for _, tf := range domain.Timeframes {
		if !strings.Contains(view, string(tf)) {
			t.Fatalf("expected %s in view:\n%s", tf, view)
		}
	}
	for _, want := range []string{"EUR/USD", "BUY", "SELL", "NEUTRAL", "30%"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

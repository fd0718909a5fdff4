package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"trendboard/internal/domain"
)

func TestDashboardUpdateQuotesMsg(t *testing.T) {
	m := NewDashboardModel(testServices())
	m.SetSize(120, 40)

	quotes := []*domain.InstrumentQuote{
		{Symbol: "BTC", Kind: domain.KindCrypto, Price: 98000, PercentChange: 2.3},
		{Symbol: "EUR/USD", Kind: domain.KindForex, Price: 1.0842, PercentChange: -0.1},
	}

	updated, _ := m.Update(quotesMsg(quotes))
	if len(updated.Quotes()) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(updated.Quotes()))
	}
	if updated.Quotes()[0].Symbol != "BTC" {
		t.Fatalf("expected BTC, got %s", updated.Quotes()[0].Symbol)
	}
	if updated.loading {
		t.Fatal("expected loading cleared")
	}
}

func TestDashboardUpdateAnalysesClampsCursor(t *testing.T) {
	m := NewDashboardModel(testServices())
	m.cursor = 5

	updated, _ := m.Update(analysesMsg{testAnalysis("BTC"), testAnalysis("ETH")})
	if len(updated.Analyses()) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(updated.Analyses()))
	}
	if updated.Selected() != "ETH" {
		t.Fatalf("expected cursor clamped to ETH, got %q", updated.Selected())
	}
}

func TestDashboardCursorMovement(t *testing.T) {
	m := NewDashboardModel(testServices())
	m, _ = m.Update(analysesMsg{testAnalysis("BTC"), testAnalysis("ETH"), testAnalysis("SOL")})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.Selected() != "SOL" {
		t.Fatalf("expected SOL at bottom, got %q", m.Selected())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	if m.Selected() != "ETH" {
		t.Fatalf("expected ETH after k, got %q", m.Selected())
	}
}

func TestDashboardSelectedEmpty(t *testing.T) {
	m := NewDashboardModel(testServices())
	if m.Selected() != "" {
		t.Fatalf("expected no selection, got %q", m.Selected())
	}
}

func TestDashboardFetchQuotesUsesLatest(t *testing.T) {
	quotes := &stubQuoteQuerier{latest: []*domain.InstrumentQuote{{Symbol: "BTC", Price: 1}}}
	svc := testServices()
	svc.Quotes = quotes
	m := NewDashboardModel(svc)

	msg := m.fetchQuotesCmd()()
	got, ok := msg.(quotesMsg)
	if !ok || len(got) != 1 {
		t.Fatalf("expected cached quotes, got %#v", msg)
	}
	if quotes.refreshes != 0 {
		t.Fatalf("expected no refresh, got %d", quotes.refreshes)
	}
}

func TestDashboardFetchQuotesRefreshesWhenEmpty(t *testing.T) {
	quotes := &stubQuoteQuerier{refreshed: []*domain.InstrumentQuote{{Symbol: "ETH", Price: 2}}}
	svc := testServices()
	svc.Quotes = quotes
	m := NewDashboardModel(svc)

	msg := m.fetchQuotesCmd()()
	if got, ok := msg.(quotesMsg); !ok || got[0].Symbol != "ETH" {
		t.Fatalf("expected refreshed quotes, got %#v", msg)
	}
	if quotes.refreshes != 1 {
		t.Fatalf("expected 1 refresh, got %d", quotes.refreshes)
	}
}

func TestDashboardFetchErrors(t *testing.T) {
	svc := testServices()
	svc.Quotes = &stubQuoteQuerier{err: errors.New("boom")}
	svc.Analyses = &stubAnalysisQuerier{err: errors.New("boom")}
	m := NewDashboardModel(svc)

	if _, ok := m.fetchQuotesCmd()().(quotesErrMsg); !ok {
		t.Fatal("expected quotesErrMsg")
	}
	if _, ok := m.fetchAnalysesCmd()().(analysesErrMsg); !ok {
		t.Fatal("expected analysesErrMsg")
	}

	svc.Quotes = nil
	svc.Analyses = nil
	m = NewDashboardModel(svc)
	if _, ok := m.fetchQuotesCmd()().(quotesErrMsg); !ok {
		t.Fatal("expected quotesErrMsg without service")
	}
}

func TestDashboardFetchAnalysesFallsBackToAnalyzeAll(t *testing.T) {
	svc := testServices()
	svc.Analyses = &stubAnalysisQuerier{analyzed: []*domain.Analysis{testAnalysis("BTC")}}
	m := NewDashboardModel(svc)

	got, ok := m.fetchAnalysesCmd()().(analysesMsg)
	if !ok || len(got) != 1 || got[0].Symbol != "BTC" {
		t.Fatalf("expected analyzed results, got %#v", got)
	}
}

func TestDashboardViewLoadingAndError(t *testing.T) {
	m := NewDashboardModel(testServices())
	m.SetSize(120, 40)
	if !strings.Contains(m.View(), "Loading quotes") {
		t.Fatalf("expected loading view, got %q", m.View())
	}

	m, _ = m.Update(quotesErrMsg{err: errors.New("provider down")})
	if !strings.Contains(m.View(), "provider down") {
		t.Fatalf("expected error view, got %q", m.View())
	}
}

func TestDashboardViewWithData(t *testing.T) {
	m := NewDashboardModel(testServices())
	m.SetSize(120, 40)

	m.quotes = []*domain.InstrumentQuote{
		{Symbol: "BTC", Kind: domain.KindCrypto, Price: 98000, PercentChange: 2.3},
		{Symbol: "XAU/USD", Kind: domain.KindCommodity, Price: 100, PercentChange: 1, Fallback: true},
	}
	m.analyses = []*domain.Analysis{testAnalysis("BTC", domain.TrendUp, domain.TrendUp, domain.TrendUp, domain.TrendUp, domain.TrendUp, domain.TrendUp)}
	m.loading = false

	view := m.View()
	for _, want := range []string{"BTC", "$98,000", "Strong Uptrend", "100%", "(fallback)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

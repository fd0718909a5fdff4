package mcp

import (
	"testing"

	"trendboard/internal/domain"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{" btc ": "BTC", "eurusd": "EUR/USD", "XAU-USD": "XAU/USD"}
	for in, want := range cases {
		got, err := normalizeSymbol(in)
		if err != nil || got != want {
			t.Fatalf("normalizeSymbol(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := normalizeSymbol("fake"); err == nil {
		t.Fatal("expected unsupported symbol error")
	}
	if _, err := normalizeSymbol("  "); err == nil {
		t.Fatal("expected required symbol error")
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	tf, err := normalizeTimeframe(" 1HOUR ")
	if err != nil || tf != domain.Timeframe1Hour {
		t.Fatalf("unexpected result %q %v", tf, err)
	}
	if _, err := normalizeTimeframe("2h"); err == nil {
		t.Fatal("expected unsupported timeframe error")
	}
}

func TestNormalizeCandleLimit(t *testing.T) {
	if normalizeCandleLimit(0) != defaultCandleLimit || normalizeCandleLimit(9999) != maxCandleLimit || normalizeCandleLimit(7) != 7 {
		t.Fatal("unexpected candle limit normalization")
	}
}

func TestTimeframeWeights(t *testing.T) {
	total := 0
	for _, w := range timeframeWeights() {
		total += w.Weight
	}
	if total != 100 {
		t.Fatalf("expected weights to sum to 100, got %d", total)
	}
}

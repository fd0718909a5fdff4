package provider

import (
	"math/rand/v2"

	"trendboard/internal/domain"
)

// FallbackProbability draws the display probability attached to fallback
// quotes, uniform in [75,99].
func FallbackProbability() int {
	return rand.IntN(25) + 75
}

type fallbackEntry struct {
	price  float64
	change float64
}

var fallbackQuotes = map[string]fallbackEntry{
	"BTC":     {48632.75, 2.34},
	"ETH":     {3295.84, 1.87},
	"XRP":     {0.58, 0.92},
	"SOL":     {135.92, 3.45},
	"ADA":     {0.45, -0.76},
	"DOT":     {6.78, 1.24},
	"LINK":    {16.35, 2.78},
	"AVAX":    {32.67, 4.12},
	"EUR/USD": {1.0765, 0.12},
	"GBP/USD": {1.2634, -0.23},
	"USD/JPY": {156.78, 0.45},
	"AUD/USD": {0.6542, -0.18},
	"USD/CAD": {1.3721, 0.31},
	"USD/CHF": {0.9056, -0.08},
}

var (
	defaultFallback      = fallbackEntry{100.00, 1.0}
	defaultForexFallback = fallbackEntry{1.0000, 0.00}
)

// FallbackValues returns the static price and percent change for a symbol.
func FallbackValues(symbol string, kind domain.InstrumentKind) (price, change float64) {
	if e, ok := fallbackQuotes[symbol]; ok {
		return e.price, e.change
	}
	if kind == domain.KindForex {
		return defaultForexFallback.price, defaultForexFallback.change
	}
	return defaultFallback.price, defaultFallback.change
}

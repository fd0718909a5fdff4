package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrUnsupportedSymbol = errors.New("unsupported symbol")

type InstrumentKind string

const (
	KindCrypto    InstrumentKind = "crypto"
	KindForex     InstrumentKind = "forex"
	KindCommodity InstrumentKind = "commodity"
)

// Instrument is a tradable symbol together with the currency pair used to
// request its exchange rate.
type Instrument struct {
	Symbol string         `json:"symbol"`
	Name   string         `json:"name"`
	Kind   InstrumentKind `json:"kind"`
	From   string         `json:"from"`
	To     string         `json:"to"`
}

const DefaultMarket = "USD"

var SupportedInstruments = []Instrument{
	{Symbol: "BTC", Name: "Bitcoin", Kind: KindCrypto, From: "BTC", To: DefaultMarket},
	{Symbol: "ETH", Name: "Ethereum", Kind: KindCrypto, From: "ETH", To: DefaultMarket},
	{Symbol: "XRP", Name: "XRP", Kind: KindCrypto, From: "XRP", To: DefaultMarket},
	{Symbol: "SOL", Name: "Solana", Kind: KindCrypto, From: "SOL", To: DefaultMarket},
	{Symbol: "ADA", Name: "Cardano", Kind: KindCrypto, From: "ADA", To: DefaultMarket},
	{Symbol: "DOT", Name: "Polkadot", Kind: KindCrypto, From: "DOT", To: DefaultMarket},
	{Symbol: "LINK", Name: "Chainlink", Kind: KindCrypto, From: "LINK", To: DefaultMarket},
	{Symbol: "AVAX", Name: "Avalanche", Kind: KindCrypto, From: "AVAX", To: DefaultMarket},
	{Symbol: "EUR/USD", Name: "Euro / US Dollar", Kind: KindForex, From: "EUR", To: "USD"},
	{Symbol: "GBP/USD", Name: "British Pound / US Dollar", Kind: KindForex, From: "GBP", To: "USD"},
	{Symbol: "USD/JPY", Name: "US Dollar / Japanese Yen", Kind: KindForex, From: "USD", To: "JPY"},
	{Symbol: "AUD/USD", Name: "Australian Dollar / US Dollar", Kind: KindForex, From: "AUD", To: "USD"},
	{Symbol: "USD/CAD", Name: "US Dollar / Canadian Dollar", Kind: KindForex, From: "USD", To: "CAD"},
	{Symbol: "USD/CHF", Name: "US Dollar / Swiss Franc", Kind: KindForex, From: "USD", To: "CHF"},
	{Symbol: "XAU/USD", Name: "Gold", Kind: KindCommodity, From: "XAU", To: "USD"},
}

var instrumentIndex = func() map[string]Instrument {
	m := make(map[string]Instrument, len(SupportedInstruments))
	for _, inst := range SupportedInstruments {
		m[inst.Symbol] = inst
	}
	return m
}()

// SupportedSymbols returns the canonical symbols in display order.
func SupportedSymbols() []string {
	out := make([]string, 0, len(SupportedInstruments))
	for _, inst := range SupportedInstruments {
		out = append(out, inst.Symbol)
	}
	return out
}

// NormalizeSymbol maps user input such as "eur-usd", "EURUSD" or "BTCUSD"
// to a canonical symbol. Unknown inputs are returned upper-cased.
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "/", "_", "/", " ", "").Replace(s)
	if _, ok := instrumentIndex[s]; ok {
		return s
	}
	if !strings.Contains(s, "/") && len(s) == 6 {
		if pair := s[:3] + "/" + s[3:]; instrumentIndex[pair].Symbol != "" {
			return pair
		}
	}
	if base, ok := strings.CutSuffix(s, "/"+DefaultMarket); ok {
		if inst, found := instrumentIndex[base]; found && inst.Kind == KindCrypto {
			return base
		}
	}
	if base, ok := strings.CutSuffix(s, DefaultMarket); ok {
		if inst, found := instrumentIndex[base]; found && inst.Kind == KindCrypto {
			return base
		}
	}
	return s
}

// LookupInstrument resolves raw input to a supported instrument.
func LookupInstrument(raw string) (Instrument, bool) {
	inst, ok := instrumentIndex[NormalizeSymbol(raw)]
	return inst, ok
}

type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// QuoteStats summarizes a trailing daily-close series.
type QuoteStats struct {
	Average    float64 `json:"average"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Volatility float64 `json:"volatility"`
	Samples    int     `json:"samples"`
}

// InstrumentQuote is a point-in-time price observation. A new value is built
// on every fetch; existing values are never modified.
type InstrumentQuote struct {
	Symbol             string                 `json:"symbol"`
	Market             string                 `json:"market"`
	Kind               InstrumentKind         `json:"kind"`
	Price              float64                `json:"price"`
	PercentChange      float64                `json:"percent_change"`
	LastUpdated        time.Time              `json:"last_updated"`
	Fallback           bool                   `json:"fallback"`
	SuccessProbability *int                   `json:"success_probability,omitempty"`
	Stats              *QuoteStats            `json:"stats,omitempty"`
	Timeframes         map[Timeframe][]Candle `json:"timeframes,omitempty"`
}

// Analysis is one pass of signal generation and aggregation for a symbol.
type Analysis struct {
	Symbol      string              `json:"symbol"`
	Source      string              `json:"source"`
	Signals     []TimeframeSignal   `json:"signals"`
	Assessment  AggregateAssessment `json:"assessment"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// SignalInfo is the compact badge shown next to an instrument.
type SignalInfo struct {
	Status             string `json:"status"`
	Color              string `json:"color"`
	SuccessProbability int    `json:"success_probability"`
}

var LoadingSignalInfo = SignalInfo{Status: "Loading", Color: "text-gray-400", SuccessProbability: 0}

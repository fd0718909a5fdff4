package mcp

import (
	"fmt"
	"strings"

	"trendboard/internal/domain"
)

const (
	defaultCandleLimit = 100
	maxCandleLimit     = 500
)

type quotesListLatestInput struct{}

type quotesListLatestOutput struct {
	Quotes []*domain.InstrumentQuote `json:"quotes"`
}

type quotesGetBySymbolInput struct {
	Symbol  string `json:"symbol" jsonschema:"instrument symbol (e.g. BTC, EUR/USD, XAU/USD)"`
	History bool   `json:"history,omitempty" jsonschema:"include daily stats and per-timeframe candles"`
}

type quotesGetBySymbolOutput struct {
	Quote *domain.InstrumentQuote `json:"quote"`
}

type candlesListInput struct {
	Symbol    string `json:"symbol" jsonschema:"instrument symbol (e.g. BTC, EUR/USD)"`
	Timeframe string `json:"timeframe" jsonschema:"timeframe: 5min, 15min, 30min, 1hour, 4hour, 1day"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of candles to return, max 500"`
}

type candlesListOutput struct {
	Symbol    string           `json:"symbol"`
	Timeframe domain.Timeframe `json:"timeframe"`
	Candles   []domain.Candle  `json:"candles"`
}

type analysisGetInput struct {
	Symbol string `json:"symbol" jsonschema:"instrument symbol (e.g. BTC, EUR/USD)"`
}

type analysisGetOutput struct {
	Analysis *domain.Analysis  `json:"analysis"`
	Info     domain.SignalInfo `json:"info"`
}

type analysisListInput struct{}

type analysisListOutput struct {
	Analyses []*domain.Analysis `json:"analyses"`
}

type timeframeWeight struct {
	Timeframe domain.Timeframe `json:"timeframe"`
	Weight    int              `json:"weight"`
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	inst, ok := domain.LookupInstrument(symbol)
	if !ok {
		return "", fmt.Errorf("unsupported symbol: %s", symbol)
	}
	return inst.Symbol, nil
}

func normalizeTimeframe(tf string) (domain.Timeframe, error) {
	tf = strings.ToLower(strings.TrimSpace(tf))
	if tf == "" {
		return "", fmt.Errorf("timeframe is required")
	}
	return domain.ParseTimeframe(tf)
}

func normalizeCandleLimit(limit int) int {
	if limit <= 0 {
		return defaultCandleLimit
	}
	if limit > maxCandleLimit {
		return maxCandleLimit
	}
	return limit
}

func timeframeWeights() []timeframeWeight {
	out := make([]timeframeWeight, 0, len(domain.Timeframes))
	for _, tf := range domain.Timeframes {
		out = append(out, timeframeWeight{Timeframe: tf, Weight: tf.Weight()})
	}
	return out
}

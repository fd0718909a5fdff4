package mcp

import (
	"context"

	"trendboard/internal/domain"
)

// QuoteReader exposes quote lookups.
type QuoteReader interface {
	Latest() []*domain.InstrumentQuote
	Refresh(ctx context.Context, withHistory bool) ([]*domain.InstrumentQuote, error)
	GetQuote(ctx context.Context, symbol string) (*domain.InstrumentQuote, error)
	GetQuotes(ctx context.Context, symbols []string, withHistory bool) ([]*domain.InstrumentQuote, error)
}

// CandleReader exposes stored candles per timeframe.
type CandleReader interface {
	GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error)
}

// AnalysisReader exposes multi-timeframe assessments.
type AnalysisReader interface {
	GetAnalysis(ctx context.Context, symbol string) (*domain.Analysis, error)
	ListAnalyses() []*domain.Analysis
	AnalyzeAll(ctx context.Context) ([]*domain.Analysis, error)
}

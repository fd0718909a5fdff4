package tui

import (
	"context"

	"trendboard/internal/domain"
)

// QuoteQuerier provides cached quotes to the TUI.
type QuoteQuerier interface {
	Latest() []*domain.InstrumentQuote
	Refresh(ctx context.Context, withHistory bool) ([]*domain.InstrumentQuote, error)
}

// AnalysisQuerier provides trend assessments to the TUI.
type AnalysisQuerier interface {
	ListAnalyses() []*domain.Analysis
	AnalyzeAll(ctx context.Context) ([]*domain.Analysis, error)
}

// Commentator produces a short written take on one instrument.
type Commentator interface {
	Commentary(ctx context.Context, symbol string) (string, error)
}

// Services bundles all service dependencies injected into the TUI.
// Commentary is nil when no LLM is configured.
type Services struct {
	Quotes     QuoteQuerier
	Analyses   AnalysisQuerier
	Commentary Commentator
	Username   string
}

package signal

import (
	"context"
	"fmt"
	"strings"

	"trendboard/internal/domain"
)

const (
	SourceMock   = "mock"
	SourceMarket = "market"
)

// SignalSource produces one signal per timeframe, in domain.Timeframes order.
type SignalSource interface {
	Name() string
	Signals(ctx context.Context, symbol string) ([]domain.TimeframeSignal, error)
}

// CandleReader returns candles for a symbol and timeframe, oldest first.
type CandleReader interface {
	Candles(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.Candle, error)
}

// NewSource builds the source named by kind. The market source needs a reader.
func NewSource(kind string, reader CandleReader) (SignalSource, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", SourceMock:
		return NewMockSource(nil, nil), nil
	case SourceMarket:
		if reader == nil {
			return nil, fmt.Errorf("market signal source requires a candle reader")
		}
		return NewMarketDataSource(reader, nil), nil
	default:
		return nil, fmt.Errorf("unknown signal source %q", kind)
	}
}

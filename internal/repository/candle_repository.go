package repository

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/domain"
)

// maxCandlesPerSeries bounds memory per (symbol, timeframe).
const maxCandlesPerSeries = 500

type seriesKey struct {
	symbol    string
	timeframe domain.Timeframe
}

// CandleRepository keeps the latest candle series per symbol and timeframe in
// memory. Each upsert replaces the series for the timeframes it carries.
type CandleRepository struct {
	tracer trace.Tracer

	mu      sync.RWMutex
	series  map[seriesKey][]domain.Candle
	updated map[string]time.Time
	now     func() time.Time
}

func NewCandleRepository(tracer trace.Tracer) *CandleRepository {
	return &CandleRepository{
		tracer:  tracer,
		series:  make(map[seriesKey][]domain.Candle),
		updated: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *CandleRepository) UpsertCandles(ctx context.Context, symbol string, byTimeframe map[domain.Timeframe][]domain.Candle) error {
	_, span := r.tracer.Start(ctx, "candle-repository.upsert")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("timeframes", len(byTimeframe)))

	if len(byTimeframe) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for tf, candles := range byTimeframe {
		if !tf.IsValid() || len(candles) == 0 {
			continue
		}
		if len(candles) > maxCandlesPerSeries {
			candles = candles[len(candles)-maxCandlesPerSeries:]
		}
		stored := make([]domain.Candle, len(candles))
		copy(stored, candles)
		r.series[seriesKey{symbol, tf}] = stored
	}
	r.updated[symbol] = r.now().UTC()
	return nil
}

// Candles returns a copy of the stored series, oldest first. Unknown series
// yield nil without error.
func (r *CandleRepository) Candles(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.Candle, error) {
	return r.GetCandles(ctx, symbol, tf, 0)
}

// GetCandles returns at most limit of the most recent candles; limit <= 0
// returns the whole series.
func (r *CandleRepository) GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	_, span := r.tracer.Start(ctx, "candle-repository.get")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.series[seriesKey{symbol, tf}]
	if limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}
	if len(stored) == 0 {
		return nil, nil
	}
	out := make([]domain.Candle, len(stored))
	copy(out, stored)
	return out, nil
}

// UpdatedAt reports when candles for symbol were last stored.
func (r *CandleRepository) UpdatedAt(symbol string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.updated[symbol]
	return t, ok
}

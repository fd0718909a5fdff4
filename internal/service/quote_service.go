package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/cache"
	"trendboard/internal/domain"
	"trendboard/internal/provider"
)

const QuoteSnapshotTTL = 5 * time.Minute

type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol, market string, withHistory bool) *domain.InstrumentQuote
}

type CandleWriter interface {
	UpsertCandles(ctx context.Context, symbol string, byTimeframe map[domain.Timeframe][]domain.Candle) error
}

type SnapshotStore interface {
	Get(ctx context.Context, id string, dest any) error
	Set(ctx context.Context, id string, value any) error
}

type QuoteService struct {
	tracer    trace.Tracer
	provider  QuoteProvider
	snapshots SnapshotStore
	candles   CandleWriter
	symbols   []string

	mu     sync.RWMutex
	latest map[string]quoteEntry
	now    func() time.Time
}

type quoteEntry struct {
	quote     *domain.InstrumentQuote
	fetchedAt time.Time
}

func NewQuoteService(
	tracer trace.Tracer,
	provider QuoteProvider,
	snapshots SnapshotStore,
	candles CandleWriter,
	symbols []string,
) *QuoteService {
	if len(symbols) == 0 {
		symbols = domain.SupportedSymbols()
	}
	return &QuoteService{
		tracer:    tracer,
		provider:  provider,
		snapshots: snapshots,
		candles:   candles,
		symbols:   symbols,
		latest:    make(map[string]quoteEntry),
		now:       time.Now,
	}
}

// Symbols lists the watched instruments in display order.
func (s *QuoteService) Symbols() []string {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// GetQuote returns the most recent quote for one symbol, checking memory,
// then the snapshot cache, then the provider.
func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (*domain.InstrumentQuote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-quote")
	defer span.End()

	inst, ok := domain.LookupInstrument(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSymbol, symbol)
	}
	span.SetAttributes(attribute.String("symbol", inst.Symbol))

	if q := s.cached(inst.Symbol); q != nil {
		return q, nil
	}

	var snap domain.InstrumentQuote
	if s.snapshots != nil {
		err := s.snapshots.Get(ctx, inst.Symbol, &snap)
		switch {
		case err == nil:
			s.remember(&snap)
			return &snap, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("snapshot read failed")
		}
	}

	quotes := s.fetchAll(ctx, []string{inst.Symbol}, false)
	s.store(ctx, quotes)
	return quotes[0], nil
}

// GetQuotes fetches live quotes for several symbols in parallel. Each symbol
// is fetched independently, so one failure only affects its own slot.
func (s *QuoteService) GetQuotes(ctx context.Context, symbols []string, withHistory bool) ([]*domain.InstrumentQuote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-quotes")
	defer span.End()

	normalized := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		inst, ok := domain.LookupInstrument(sym)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSymbol, sym)
		}
		normalized = append(normalized, inst.Symbol)
	}
	span.SetAttributes(attribute.Int("symbols", len(normalized)))

	quotes := s.fetchAll(ctx, normalized, withHistory)
	s.store(ctx, quotes)
	return quotes, nil
}

// Refresh fetches every watched symbol and publishes candles when history
// was requested.
func (s *QuoteService) Refresh(ctx context.Context, withHistory bool) ([]*domain.InstrumentQuote, error) {
	return s.GetQuotes(ctx, s.symbols, withHistory)
}

// Latest returns the last known quote per watched symbol, skipping symbols
// that were never fetched.
func (s *QuoteService) Latest() []*domain.InstrumentQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.InstrumentQuote, 0, len(s.symbols))
	for _, sym := range s.symbols {
		if e, ok := s.latest[sym]; ok {
			out = append(out, e.quote)
		}
	}
	return out
}

func (s *QuoteService) fetchAll(ctx context.Context, symbols []string, withHistory bool) []*domain.InstrumentQuote {
	out := make([]*domain.InstrumentQuote, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			out[i] = s.fetchOne(ctx, sym, withHistory)
		}(i, sym)
	}
	wg.Wait()
	return out
}

func (s *QuoteService) fetchOne(ctx context.Context, symbol string, withHistory bool) (q *domain.InstrumentQuote) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("symbol", symbol).Msg("quote fetch panicked, using fallback")
			q = staticQuote(symbol)
		}
	}()
	q = s.provider.FetchQuote(ctx, symbol, "", withHistory)
	if q == nil {
		q = staticQuote(symbol)
	}
	return q
}

func staticQuote(symbol string) *domain.InstrumentQuote {
	inst, _ := domain.LookupInstrument(symbol)
	price, change := provider.FallbackValues(symbol, inst.Kind)
	prob := provider.FallbackProbability()
	return &domain.InstrumentQuote{
		Symbol:             symbol,
		Market:             inst.To,
		Kind:               inst.Kind,
		Price:              price,
		PercentChange:      change,
		LastUpdated:        time.Now().UTC(),
		Fallback:           true,
		SuccessProbability: &prob,
	}
}

// store keeps candles in the repository and a candle-free copy of each quote
// in memory and in the snapshot cache.
func (s *QuoteService) store(ctx context.Context, quotes []*domain.InstrumentQuote) {
	for _, q := range quotes {
		if len(q.Timeframes) > 0 && s.candles != nil {
			if err := s.candles.UpsertCandles(ctx, q.Symbol, q.Timeframes); err != nil {
				log.Warn().Err(err).Str("symbol", q.Symbol).Msg("candle upsert failed")
			}
		}
		slim := *q
		slim.Timeframes = nil
		s.remember(&slim)
		if s.snapshots != nil {
			if err := s.snapshots.Set(ctx, q.Symbol, &slim); err != nil {
				log.Warn().Err(err).Str("symbol", q.Symbol).Msg("snapshot write failed")
			}
		}
	}
}

// cached returns a quote fetched within QuoteSnapshotTTL.
func (s *QuoteService) cached(symbol string) *domain.InstrumentQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.latest[symbol]
	if !ok || s.now().Sub(e.fetchedAt) > QuoteSnapshotTTL {
		return nil
	}
	return e.quote
}

func (s *QuoteService) remember(q *domain.InstrumentQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[q.Symbol] = quoteEntry{quote: q, fetchedAt: s.now()}
}

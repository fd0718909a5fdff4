package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/cache"
	"trendboard/internal/domain"
	"trendboard/internal/signal"
)

const AnalysisSnapshotTTL = 2 * time.Minute

// AnalysisListener receives every completed analysis pass.
type AnalysisListener func(ctx context.Context, analyses []*domain.Analysis)

type AnalysisService struct {
	tracer    trace.Tracer
	source    signal.SignalSource
	snapshots SnapshotStore
	symbols   []string
	now       func() time.Time

	mu     sync.RWMutex
	latest map[string]*domain.Analysis

	listenersMu sync.RWMutex
	listeners   []AnalysisListener
}

func NewAnalysisService(
	tracer trace.Tracer,
	source signal.SignalSource,
	snapshots SnapshotStore,
	symbols []string,
) *AnalysisService {
	if len(symbols) == 0 {
		symbols = domain.SupportedSymbols()
	}
	return &AnalysisService{
		tracer:    tracer,
		source:    source,
		snapshots: snapshots,
		symbols:   symbols,
		now:       time.Now,
		latest:    make(map[string]*domain.Analysis),
	}
}

func (s *AnalysisService) SourceName() string {
	return s.source.Name()
}

func (s *AnalysisService) Symbols() []string {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// OnAnalysis registers fn to be called after each AnalyzeAll pass.
func (s *AnalysisService) OnAnalysis(fn AnalysisListener) {
	if fn == nil {
		return
	}
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Analyze generates the six timeframe signals for one symbol and reduces them
// to an assessment. The result replaces the stored analysis for that symbol.
func (s *AnalysisService) Analyze(ctx context.Context, symbol string) (*domain.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze")
	defer span.End()

	inst, ok := domain.LookupInstrument(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSymbol, symbol)
	}
	span.SetAttributes(attribute.String("symbol", inst.Symbol), attribute.String("source", s.source.Name()))

	signals, err := s.source.Signals(ctx, inst.Symbol)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("signals for %s: %w", inst.Symbol, err)
	}

	a := &domain.Analysis{
		Symbol:      inst.Symbol,
		Source:      s.source.Name(),
		Signals:     signals,
		Assessment:  signal.Aggregate(signals),
		GeneratedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.latest[a.Symbol] = a
	s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.Set(ctx, a.Symbol, a); err != nil {
			log.Warn().Err(err).Str("symbol", a.Symbol).Msg("analysis snapshot write failed")
		}
	}
	return a, nil
}

// AnalyzeAll runs Analyze for every watched symbol in parallel. Symbols that
// fail are left out of the result and reported in the joined error.
func (s *AnalysisService) AnalyzeAll(ctx context.Context) ([]*domain.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze-all")
	defer span.End()

	results := make([]*domain.Analysis, len(s.symbols))
	errs := make([]error, len(s.symbols))
	var wg sync.WaitGroup
	for i, sym := range s.symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			results[i], errs[i] = s.Analyze(ctx, sym)
		}(i, sym)
	}
	wg.Wait()

	out := make([]*domain.Analysis, 0, len(results))
	for _, a := range results {
		if a != nil {
			out = append(out, a)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}

	if len(out) > 0 {
		s.notify(ctx, out)
	}
	return out, err
}

// GetAnalysis returns the stored analysis for symbol, computing it when none
// exists yet.
func (s *AnalysisService) GetAnalysis(ctx context.Context, symbol string) (*domain.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.get-analysis")
	defer span.End()

	inst, ok := domain.LookupInstrument(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSymbol, symbol)
	}
	if a := s.stored(inst.Symbol); a != nil {
		return a, nil
	}

	if s.snapshots != nil {
		var snap domain.Analysis
		err := s.snapshots.Get(ctx, inst.Symbol, &snap)
		switch {
		case err == nil:
			return &snap, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("analysis snapshot read failed")
		}
	}
	return s.Analyze(ctx, inst.Symbol)
}

// ListAnalyses returns stored analyses in watch-list order.
func (s *AnalysisService) ListAnalyses() []*domain.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Analysis, 0, len(s.symbols))
	for _, sym := range s.symbols {
		if a, ok := s.latest[sym]; ok {
			out = append(out, a)
		}
	}
	return out
}

// SignalInfo returns the badge for symbol, or the loading badge when no
// analysis has completed yet.
func (s *AnalysisService) SignalInfo(symbol string) domain.SignalInfo {
	inst, ok := domain.LookupInstrument(symbol)
	if !ok {
		return domain.LoadingSignalInfo
	}
	return signal.Info(s.stored(inst.Symbol))
}

func (s *AnalysisService) stored(symbol string) *domain.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[symbol]
}

func (s *AnalysisService) notify(ctx context.Context, analyses []*domain.Analysis) {
	s.listenersMu.RLock()
	listeners := make([]AnalysisListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, analyses)
	}
}

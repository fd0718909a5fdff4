package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/cache"
	"trendboard/internal/domain"
	"trendboard/internal/signal"
)

type stubSource struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
	trend domain.Trend
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Signals(_ context.Context, symbol string) ([]domain.TimeframeSignal, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail[symbol] {
		return nil, errors.New("source down")
	}
	out := make([]domain.TimeframeSignal, 0, len(domain.Timeframes))
	for _, tf := range domain.Timeframes {
		out = append(out, domain.TimeframeSignal{Timeframe: tf, Trend: s.trend, Signal: domain.ActionForTrend(s.trend)})
	}
	return out, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newAnalysisServiceForTest(src signal.SignalSource, snapshots SnapshotStore, symbols ...string) *AnalysisService {
	svc := NewAnalysisService(trace.NewNoopTracerProvider().Tracer("test"), src, snapshots, symbols)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAnalyzeAggregatesSignals(t *testing.T) {
	svc := newAnalysisServiceForTest(&stubSource{trend: domain.TrendUp}, nil)

	a, err := svc.Analyze(context.Background(), "btc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Symbol != "BTC" || a.Source != "stub" || len(a.Signals) != 6 {
		t.Fatalf("unexpected analysis %+v", a)
	}
	if a.Assessment.SuccessProbability != 100 || a.Assessment.Label != "Strong Uptrend" {
		t.Fatalf("unexpected assessment %+v", a.Assessment)
	}
	if !a.GeneratedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", a.GeneratedAt)
	}
}

func TestAnalyzeWithMockSource(t *testing.T) {
	src := signal.NewMockSource(nil, func() float64 { return 42 })
	svc := newAnalysisServiceForTest(src, nil)

	a, err := svc.Analyze(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Source != signal.SourceMock {
		t.Fatalf("unexpected source %s", a.Source)
	}
	for _, s := range a.Signals {
		if s.Trend != signal.MockTrend("BTC", s.Timeframe) || s.Strength != 42 {
			t.Fatalf("unexpected mock signal %+v", s)
		}
	}
}

func TestAnalyzeRejectsUnsupported(t *testing.T) {
	svc := newAnalysisServiceForTest(&stubSource{}, nil)
	if _, err := svc.Analyze(context.Background(), "DOGE"); !errors.Is(err, domain.ErrUnsupportedSymbol) {
		t.Fatalf("expected ErrUnsupportedSymbol, got %v", err)
	}
}

func TestAnalyzeAllNotifiesAndIsolatesFailures(t *testing.T) {
	src := &stubSource{trend: domain.TrendDown, fail: map[string]bool{"ETH": true}}
	svc := newAnalysisServiceForTest(src, nil, "BTC", "ETH", "EUR/USD")

	var got []*domain.Analysis
	svc.OnAnalysis(func(_ context.Context, analyses []*domain.Analysis) {
		got = analyses
	})
	svc.OnAnalysis(nil)

	out, err := svc.AnalyzeAll(context.Background())
	if err == nil {
		t.Fatal("expected joined error for ETH")
	}
	if len(out) != 2 || out[0].Symbol != "BTC" || out[1].Symbol != "EUR/USD" {
		t.Fatalf("unexpected results %+v", out)
	}
	if len(got) != 2 {
		t.Fatalf("listener should see 2 analyses, got %d", len(got))
	}

	list := svc.ListAnalyses()
	if len(list) != 2 {
		t.Fatalf("expected 2 stored analyses, got %d", len(list))
	}
}

func TestSignalInfoLoadingUntilAnalyzed(t *testing.T) {
	svc := newAnalysisServiceForTest(&stubSource{trend: domain.TrendSideways}, nil)

	if info := svc.SignalInfo("BTC"); info != domain.LoadingSignalInfo {
		t.Fatalf("expected loading badge, got %+v", info)
	}
	if info := svc.SignalInfo("DOGE"); info != domain.LoadingSignalInfo {
		t.Fatalf("expected loading badge for unknown symbol, got %+v", info)
	}

	if _, err := svc.Analyze(context.Background(), "BTC"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info := svc.SignalInfo("BTC")
	if info.Status != "Weak Sideways" || info.Color != "text-yellow-300" || info.SuccessProbability != 0 {
		t.Fatalf("unexpected badge %+v", info)
	}
}

func TestGetAnalysisUsesStoredThenSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	snapshots := cache.NewSnapshots(client, "analysis", AnalysisSnapshotTTL)

	src := &stubSource{trend: domain.TrendUp}
	svc := newAnalysisServiceForTest(src, snapshots)

	if _, err := svc.GetAnalysis(context.Background(), "SOL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetAnalysis(context.Background(), "SOL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.callCount() != 1 {
		t.Fatalf("expected one source call, got %d", src.callCount())
	}
	if !mr.Exists("analysis:SOL") {
		t.Fatal("expected analysis snapshot in redis")
	}

	// A fresh service instance reads the shared snapshot instead of recomputing.
	fresh := newAnalysisServiceForTest(src, snapshots)
	a, err := fresh.GetAnalysis(context.Background(), "SOL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Assessment.Label != "Strong Uptrend" || src.callCount() != 1 {
		t.Fatalf("expected snapshot hit, got %+v after %d calls", a.Assessment, src.callCount())
	}
}

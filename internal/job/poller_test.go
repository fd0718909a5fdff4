package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/domain"
)

type stubRefresher struct {
	mu      sync.Mutex
	history []bool
}

func (s *stubRefresher) Refresh(_ context.Context, withHistory bool) ([]*domain.InstrumentQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, withHistory)
	return []*domain.InstrumentQuote{{Symbol: "BTC"}, {Symbol: "ETH", Fallback: true}}, nil
}

func (s *stubRefresher) snapshot() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.history...)
}

type stubRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubRunner) AnalyzeAll(context.Context) ([]*domain.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return []*domain.Analysis{{Symbol: "BTC"}}, s.err
}

func (s *stubRunner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestMarketPollerRefreshesCandlesFirst(t *testing.T) {
	t.Parallel()

	stub := &stubRefresher{}
	poller := NewMarketPoller(trace.NewNoopTracerProvider().Tracer("test"), stub, 1, 3600)
	poller.quoteInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return len(stub.snapshot()) >= 3 })
	cancel()
	<-done

	calls := stub.snapshot()
	if !calls[0] {
		t.Fatalf("first refresh should include history, got %v", calls)
	}
	withHistory := 0
	for _, h := range calls {
		if h {
			withHistory++
		}
	}
	if withHistory != 1 {
		t.Fatalf("expected a single history refresh, got %v", calls)
	}
}

func TestMarketPollerDisabled(t *testing.T) {
	poller := NewMarketPoller(trace.NewNoopTracerProvider().Tracer("test"), nil, 0, 0)
	if poller.quoteInterval != defaultQuoteInterval || poller.candleInterval != defaultCandleInterval {
		t.Fatalf("unexpected defaults %v/%v", poller.quoteInterval, poller.candleInterval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled poller did not stop")
	}
}

func TestAnalysisPollerRunsUntilCancelled(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: errors.New("ETH failed")}
	poller := NewAnalysisPoller(trace.NewNoopTracerProvider().Tracer("test"), runner, 60)
	if poller.interval != time.Minute {
		t.Fatalf("unexpected interval %v", poller.interval)
	}
	poller.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return runner.count() >= 2 })
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

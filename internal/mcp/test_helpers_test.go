package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"trendboard/internal/domain"
	"trendboard/internal/signal"
)

type stubQuoteService struct {
	latest      []*domain.InstrumentQuote
	bySymbol    map[string]*domain.InstrumentQuote
	refreshed   int
	lastHistory bool
}

func (s *stubQuoteService) Latest() []*domain.InstrumentQuote {
	return append([]*domain.InstrumentQuote(nil), s.latest...)
}

func (s *stubQuoteService) Refresh(ctx context.Context, withHistory bool) ([]*domain.InstrumentQuote, error) {
	s.refreshed++
	s.latest = []*domain.InstrumentQuote{{Symbol: "BTC", Price: 1}}
	return s.Latest(), nil
}

func (s *stubQuoteService) GetQuote(ctx context.Context, symbol string) (*domain.InstrumentQuote, error) {
	if q, ok := s.bySymbol[symbol]; ok {
		copy := *q
		return &copy, nil
	}
	return nil, domain.ErrUnsupportedSymbol
}

func (s *stubQuoteService) GetQuotes(ctx context.Context, symbols []string, withHistory bool) ([]*domain.InstrumentQuote, error) {
	s.lastHistory = withHistory
	out := make([]*domain.InstrumentQuote, 0, len(symbols))
	for _, sym := range symbols {
		q, err := s.GetQuote(ctx, sym)
		if err != nil {
			return nil, err
		}
		if withHistory {
			q.Stats = &domain.QuoteStats{Samples: 30}
		}
		out = append(out, q)
	}
	return out, nil
}

type stubCandleStore struct {
	candles   map[string][]domain.Candle
	lastLimit int
}

func (s *stubCandleStore) GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	s.lastLimit = limit
	candles := s.candles[symbol+":"+string(tf)]
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return append([]domain.Candle(nil), candles...), nil
}

type stubAnalysisService struct {
	stored   []*domain.Analysis
	analyzed int
}

func (s *stubAnalysisService) GetAnalysis(ctx context.Context, symbol string) (*domain.Analysis, error) {
	for _, a := range s.stored {
		if a.Symbol == symbol {
			return a, nil
		}
	}
	return s.build(symbol), nil
}

func (s *stubAnalysisService) ListAnalyses() []*domain.Analysis {
	return append([]*domain.Analysis(nil), s.stored...)
}

func (s *stubAnalysisService) AnalyzeAll(ctx context.Context) ([]*domain.Analysis, error) {
	s.analyzed++
	s.stored = []*domain.Analysis{s.build("BTC"), s.build("EUR/USD")}
	return s.ListAnalyses(), nil
}

func (s *stubAnalysisService) build(symbol string) *domain.Analysis {
	signals := make([]domain.TimeframeSignal, 0, len(domain.Timeframes))
	for _, tf := range domain.Timeframes {
		signals = append(signals, domain.TimeframeSignal{Timeframe: tf, Trend: domain.TrendUp, Signal: domain.ActionBuy})
	}
	return &domain.Analysis{Symbol: symbol, Source: "stub", Signals: signals, Assessment: signal.Aggregate(signals)}
}

func testServer() (*sdkmcp.Server, *stubQuoteService, *stubCandleStore, *stubAnalysisService) {
	quotes := &stubQuoteService{
		bySymbol: map[string]*domain.InstrumentQuote{
			"BTC":     {Symbol: "BTC", Price: 50000, PercentChange: 2.1, LastUpdated: time.Now().UTC()},
			"EUR/USD": {Symbol: "EUR/USD", Price: 1.0765, Fallback: true},
		},
	}
	candles := &stubCandleStore{
		candles: map[string][]domain.Candle{
			"BTC:1hour": {
				{Open: 1, High: 2, Low: 1, Close: 2, Volume: 3, OpenTime: time.Unix(0, 0).UTC()},
				{Open: 2, High: 3, Low: 2, Close: 3, Volume: 3, OpenTime: time.Unix(3600, 0).UTC()},
			},
			"EUR/USD:1day": {{Open: 1, High: 1.1, Low: 0.9, Close: 1.05, OpenTime: time.Unix(0, 0).UTC()}},
		},
	}
	analyses := &stubAnalysisService{}

	srv := NewServer(nil, quotes, candles, analyses, ServerConfig{RequestTimeout: time.Second})
	return srv, quotes, candles, analyses
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return sonic.UnmarshalString(result.Contents[0].Text, out)
}

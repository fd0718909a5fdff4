package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/domain"
)

type stubLLM struct {
	calls      int
	lastPrompt string
	reply      string
	err        error
}

func (s *stubLLM) Complete(_ context.Context, _, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	return s.reply, s.err
}

type stubAnalyses struct {
	analysis *domain.Analysis
	err      error
}

func (s *stubAnalyses) GetAnalysis(context.Context, string) (*domain.Analysis, error) {
	return s.analysis, s.err
}

type stubQuotes struct {
	quote *domain.InstrumentQuote
	err   error
}

func (s *stubQuotes) GetQuote(context.Context, string) (*domain.InstrumentQuote, error) {
	return s.quote, s.err
}

func sampleAnalysis(at time.Time) *domain.Analysis {
	return &domain.Analysis{
		Symbol: "BTC",
		Signals: []domain.TimeframeSignal{
			{Timeframe: domain.Timeframe1Day, Trend: domain.TrendUp, Signal: domain.ActionBuy, Strength: 1.5},
			{Timeframe: domain.Timeframe5Min, Trend: domain.TrendDown, Signal: domain.ActionSell},
		},
		Assessment:  domain.AggregateAssessment{Label: "Weak Uptrend", SuccessProbability: 30},
		GeneratedAt: at,
	}
}

func TestCommentaryDisabled(t *testing.T) {
	var nilSvc *AdvisorService
	if _, err := nilSvc.Commentary(context.Background(), "BTC"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	svc := NewAdvisorService(trace.NewNoopTracerProvider().Tracer("test"), nil, nil, &stubAnalyses{})
	if svc.Enabled() {
		t.Fatal("service without llm should be disabled")
	}
}

func TestCommentaryCachesPerAnalysis(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	analyses := &stubAnalyses{analysis: sampleAnalysis(at)}
	llm := &stubLLM{reply: "Mixed picture."}
	quotes := &stubQuotes{quote: &domain.InstrumentQuote{Symbol: "BTC", Price: 50000, PercentChange: 1.2, Fallback: true}}
	svc := NewAdvisorService(trace.NewNoopTracerProvider().Tracer("test"), llm, quotes, analyses)

	for i := 0; i < 2; i++ {
		text, err := svc.Commentary(context.Background(), "BTC")
		if err != nil || text != "Mixed picture." {
			t.Fatalf("unexpected reply %q %v", text, err)
		}
	}
	if llm.calls != 1 {
		t.Fatalf("expected cached reply, got %d calls", llm.calls)
	}
	if !strings.Contains(llm.lastPrompt, "[fallback data]") || !strings.Contains(llm.lastPrompt, "1day: uptrend (buy)") {
		t.Fatalf("unexpected prompt:\n%s", llm.lastPrompt)
	}

	analyses.analysis = sampleAnalysis(at.Add(time.Minute))
	if _, err := svc.Commentary(context.Background(), "BTC"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.calls != 2 {
		t.Fatalf("expected refresh after new analysis, got %d calls", llm.calls)
	}
}

func TestCommentaryErrors(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")

	svc := NewAdvisorService(tracer, &stubLLM{}, nil, &stubAnalyses{err: domain.ErrUnsupportedSymbol})
	if _, err := svc.Commentary(context.Background(), "DOGE"); !errors.Is(err, domain.ErrUnsupportedSymbol) {
		t.Fatalf("expected ErrUnsupportedSymbol, got %v", err)
	}

	llmErr := errors.New("quota")
	svc = NewAdvisorService(tracer, &stubLLM{err: llmErr}, &stubQuotes{err: errors.New("down")},
		&stubAnalyses{analysis: sampleAnalysis(time.Now())})
	if _, err := svc.Commentary(context.Background(), "BTC"); !errors.Is(err, llmErr) {
		t.Fatalf("expected llm error, got %v", err)
	}
}

func TestBuildPromptWithoutQuote(t *testing.T) {
	prompt := BuildPrompt(sampleAnalysis(time.Now()), nil)
	if strings.Contains(prompt, "Price:") {
		t.Fatalf("prompt should omit price:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Weak Uptrend, success probability 30%") {
		t.Fatalf("unexpected prompt:\n%s", prompt)
	}
}

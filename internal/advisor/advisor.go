package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/domain"
)

var ErrDisabled = errors.New("advisor disabled")

const systemPrompt = "You are a cautious market commentator for a trend dashboard. " +
	"Write one short paragraph (at most four sentences) explaining the multi-timeframe picture. " +
	"Mention which timeframes disagree. Never give financial advice or price targets."

type QuoteQuerier interface {
	GetQuote(ctx context.Context, symbol string) (*domain.InstrumentQuote, error)
}

type AnalysisQuerier interface {
	GetAnalysis(ctx context.Context, symbol string) (*domain.Analysis, error)
}

// AdvisorService produces commentary for the latest analysis of an
// instrument. Replies are cached until a newer analysis exists.
type AdvisorService struct {
	tracer   trace.Tracer
	llm      LLMClient
	quotes   QuoteQuerier
	analyses AnalysisQuerier

	mu    sync.Mutex
	cache map[string]cachedReply
}

type cachedReply struct {
	generatedAt time.Time
	text        string
}

func NewAdvisorService(tracer trace.Tracer, llm LLMClient, quotes QuoteQuerier, analyses AnalysisQuerier) *AdvisorService {
	return &AdvisorService{
		tracer:   tracer,
		llm:      llm,
		quotes:   quotes,
		analyses: analyses,
		cache:    make(map[string]cachedReply),
	}
}

func (s *AdvisorService) Enabled() bool {
	return s != nil && s.llm != nil
}

func (s *AdvisorService) Commentary(ctx context.Context, symbol string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	ctx, span := s.tracer.Start(ctx, "advisor.commentary")
	defer span.End()

	analysis, err := s.analyses.GetAnalysis(ctx, symbol)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("symbol", analysis.Symbol))

	s.mu.Lock()
	if c, ok := s.cache[analysis.Symbol]; ok && c.generatedAt.Equal(analysis.GeneratedAt) {
		s.mu.Unlock()
		return c.text, nil
	}
	s.mu.Unlock()

	var quote *domain.InstrumentQuote
	if s.quotes != nil {
		if quote, err = s.quotes.GetQuote(ctx, analysis.Symbol); err != nil {
			log.Warn().Err(err).Str("symbol", analysis.Symbol).Msg("quote unavailable for commentary")
			quote = nil
		}
	}

	text, err := s.llm.Complete(ctx, systemPrompt, BuildPrompt(analysis, quote))
	if err != nil {
		return "", fmt.Errorf("commentary for %s: %w", analysis.Symbol, err)
	}

	s.mu.Lock()
	s.cache[analysis.Symbol] = cachedReply{generatedAt: analysis.GeneratedAt, text: text}
	s.mu.Unlock()
	return text, nil
}

// BuildPrompt renders the analysis, and the quote when known, as plain text.
func BuildPrompt(a *domain.Analysis, q *domain.InstrumentQuote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Instrument: %s\n", a.Symbol)
	if q != nil {
		fmt.Fprintf(&b, "Price: %.4f (%+.2f%%)", q.Price, q.PercentChange)
		if q.Fallback {
			b.WriteString(" [fallback data]")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Assessment: %s, success probability %d%%\n", a.Assessment.Label, a.Assessment.SuccessProbability)
	b.WriteString("Timeframes:\n")
	for _, sig := range a.Signals {
		fmt.Fprintf(&b, "- %s: %s (%s), strength %.2f\n", sig.Timeframe, sig.Trend, sig.Signal, sig.Strength)
	}
	return b.String()
}

package job

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/domain"
)

const (
	defaultQuoteInterval  = 5 * time.Minute
	defaultCandleInterval = 15 * time.Minute
)

type QuoteRefresher interface {
	Refresh(ctx context.Context, withHistory bool) ([]*domain.InstrumentQuote, error)
}

// MarketPoller keeps quotes and candles current. Quotes refresh on the
// short interval; the long interval also pulls per-timeframe history.
type MarketPoller struct {
	tracer         trace.Tracer
	quotes         QuoteRefresher
	quoteInterval  time.Duration
	candleInterval time.Duration
}

func NewMarketPoller(tracer trace.Tracer, quotes QuoteRefresher, quoteSecs, candleSecs int) *MarketPoller {
	return &MarketPoller{
		tracer:         tracer,
		quotes:         quotes,
		quoteInterval:  secondsOr(quoteSecs, defaultQuoteInterval),
		candleInterval: secondsOr(candleSecs, defaultCandleInterval),
	}
}

// Start blocks until ctx is cancelled.
func (p *MarketPoller) Start(ctx context.Context) {
	if p.quotes == nil {
		log.Info().Msg("market poller disabled: no quote service")
		<-ctx.Done()
		return
	}

	log.Info().Dur("quotes", p.quoteInterval).Dur("candles", p.candleInterval).Msg("market poller starting")
	go runEvery(ctx, p.candleInterval, func(ctx context.Context) { p.refresh(ctx, true) })

	// The candle pass already fetched quotes once.
	ticker := time.NewTicker(p.quoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("market poller stopped")
			return
		case <-ticker.C:
			p.refresh(ctx, false)
		}
	}
}

func (p *MarketPoller) refresh(ctx context.Context, withHistory bool) {
	ctx, span := p.tracer.Start(ctx, "job.market-refresh")
	defer span.End()
	span.SetAttributes(attribute.Bool("history", withHistory))

	quotes, err := p.quotes.Refresh(ctx, withHistory)
	if err != nil {
		log.Error().Err(err).Bool("history", withHistory).Msg("market refresh failed")
		return
	}
	fallbacks := 0
	for _, q := range quotes {
		if q.Fallback {
			fallbacks++
		}
	}
	span.SetAttributes(attribute.Int("quotes", len(quotes)), attribute.Int("fallbacks", fallbacks))
	log.Debug().Int("quotes", len(quotes)).Int("fallbacks", fallbacks).Bool("history", withHistory).Msg("market refreshed")
}

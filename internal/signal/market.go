package signal

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog/log"

	"trendboard/internal/domain"
)

const (
	fastMAPeriod   = 50
	slowMAPeriod   = 200
	trailingWindow = 20
)

// MarketDataSource classifies each timeframe with a 50/200 simple moving
// average crossover over stored candles.
type MarketDataSource struct {
	reader CandleReader
	now    func() time.Time
}

func NewMarketDataSource(reader CandleReader, now func() time.Time) *MarketDataSource {
	if now == nil {
		now = time.Now
	}
	return &MarketDataSource{reader: reader, now: now}
}

func (m *MarketDataSource) Name() string { return SourceMarket }

// Signals never fails on missing data: a timeframe without candles is
// reported as sideways with zero strength.
func (m *MarketDataSource) Signals(ctx context.Context, symbol string) ([]domain.TimeframeSignal, error) {
	ts := m.now().UTC()
	out := make([]domain.TimeframeSignal, 0, len(domain.Timeframes))
	for _, tf := range domain.Timeframes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candles, err := m.reader.Candles(ctx, symbol, tf)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Str("timeframe", string(tf)).Msg("candles unavailable")
			candles = nil
		}
		out = append(out, Classify(tf, candles, ts))
	}
	return out, nil
}

// Classify derives a timeframe signal from candles in any order.
func Classify(tf domain.Timeframe, candles []domain.Candle, ts time.Time) domain.TimeframeSignal {
	ordered := normalizeCandles(candles)
	trend := classifyTrend(extractCloses(ordered))
	support, resistance := supportResistance(ordered)
	return domain.TimeframeSignal{
		Timeframe:   tf,
		Trend:       trend,
		Signal:      domain.ActionForTrend(trend),
		Strength:    trendStrength(ordered),
		Support:     support,
		Resistance:  resistance,
		LastUpdated: ts,
	}
}

func normalizeCandles(in []domain.Candle) []domain.Candle {
	out := make([]domain.Candle, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out
}

func extractCloses(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// classifyTrend needs at least slowMAPeriod closes; anything shorter is sideways.
func classifyTrend(closes []float64) domain.Trend {
	if len(closes) < slowMAPeriod {
		return domain.TrendSideways
	}
	window := closes[len(closes)-slowMAPeriod:]
	fast := talib.Sma(window, fastMAPeriod)
	slow := talib.Sma(window, slowMAPeriod)
	ma50 := fast[len(fast)-1]
	ma200 := slow[len(slow)-1]
	current := window[len(window)-1]

	switch {
	case current > ma50 && current > ma200:
		return domain.TrendUp
	case current < ma50 && current < ma200:
		return domain.TrendDown
	default:
		return domain.TrendSideways
	}
}

// trendStrength is the absolute mean close-to-close return over the trailing
// window, in percent.
func trendStrength(candles []domain.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	recent := candles[max(0, len(candles)-trailingWindow):]
	var sum float64
	n := 0
	for i := 1; i < len(recent); i++ {
		prev := recent[i-1].Close
		if prev == 0 {
			continue
		}
		sum += (recent[i].Close - prev) / prev
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Abs(sum/float64(n)) * 100
}

func supportResistance(candles []domain.Candle) (support, resistance float64) {
	if len(candles) < trailingWindow {
		return 0, 0
	}
	recent := candles[len(candles)-trailingWindow:]
	support = math.Inf(1)
	resistance = math.Inf(-1)
	for _, c := range recent {
		support = math.Min(support, c.Low)
		resistance = math.Max(resistance, c.High)
	}
	return support, resistance
}

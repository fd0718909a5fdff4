package signal

import (
	"context"
	"math/rand/v2"
	"time"

	"trendboard/internal/domain"
)

var mockTrends = [3]domain.Trend{domain.TrendUp, domain.TrendDown, domain.TrendSideways}

// MockSource assigns trends from the symbol's first character and the length
// of the timeframe name. The result is stable per symbol and carries no
// market meaning.
type MockSource struct {
	now      func() time.Time
	strength func() float64
}

func NewMockSource(now func() time.Time, strength func() float64) *MockSource {
	if now == nil {
		now = time.Now
	}
	if strength == nil {
		strength = func() float64 { return rand.Float64() * 100 }
	}
	return &MockSource{now: now, strength: strength}
}

func (m *MockSource) Name() string { return SourceMock }

func (m *MockSource) Signals(ctx context.Context, symbol string) ([]domain.TimeframeSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ts := m.now().UTC()
	out := make([]domain.TimeframeSignal, 0, len(domain.Timeframes))
	for _, tf := range domain.Timeframes {
		trend := MockTrend(symbol, tf)
		out = append(out, domain.TimeframeSignal{
			Timeframe:   tf,
			Trend:       trend,
			Signal:      domain.ActionForTrend(trend),
			Strength:    m.strength(),
			LastUpdated: ts,
		})
	}
	return out, nil
}

// MockTrend is (first code unit of symbol + len(timeframe)) mod 3 mapped to
// uptrend, downtrend, sideways. An empty symbol seeds with 0.
func MockTrend(symbol string, tf domain.Timeframe) domain.Trend {
	seed := 0
	if symbol != "" {
		seed = int(symbol[0])
	}
	return mockTrends[(seed+len(tf))%3]
}

package domain

import (
	"fmt"
	"time"
)

type Timeframe string

const (
	Timeframe5Min  Timeframe = "5min"
	Timeframe15Min Timeframe = "15min"
	Timeframe30Min Timeframe = "30min"
	Timeframe1Hour Timeframe = "1hour"
	Timeframe4Hour Timeframe = "4hour"
	Timeframe1Day  Timeframe = "1day"
)

// Timeframes lists every timeframe in ascending duration order.
var Timeframes = []Timeframe{
	Timeframe5Min,
	Timeframe15Min,
	Timeframe30Min,
	Timeframe1Hour,
	Timeframe4Hour,
	Timeframe1Day,
}

// TimeframeWeights is the fixed contribution of each timeframe to the
// aggregate success probability. The values sum to 100.
var TimeframeWeights = map[Timeframe]int{
	Timeframe5Min:  5,
	Timeframe15Min: 10,
	Timeframe30Min: 10,
	Timeframe1Hour: 20,
	Timeframe4Hour: 25,
	Timeframe1Day:  30,
}

func (t Timeframe) IsValid() bool {
	_, ok := TimeframeWeights[t]
	return ok
}

func (t Timeframe) Weight() int {
	return TimeframeWeights[t]
}

func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe5Min:
		return 5 * time.Minute
	case Timeframe15Min:
		return 15 * time.Minute
	case Timeframe30Min:
		return 30 * time.Minute
	case Timeframe1Hour:
		return time.Hour
	case Timeframe4Hour:
		return 4 * time.Hour
	case Timeframe1Day:
		return 24 * time.Hour
	default:
		return 0
	}
}

func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !tf.IsValid() {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

type Trend string

const (
	TrendUp       Trend = "uptrend"
	TrendDown     Trend = "downtrend"
	TrendSideways Trend = "sideways"
)

type SignalAction string

const (
	ActionBuy     SignalAction = "buy"
	ActionSell    SignalAction = "sell"
	ActionNeutral SignalAction = "neutral"
)

// ActionForTrend is the only rule used to turn a trend into a signal.
func ActionForTrend(t Trend) SignalAction {
	switch t {
	case TrendUp:
		return ActionBuy
	case TrendDown:
		return ActionSell
	default:
		return ActionNeutral
	}
}

type TimeframeSignal struct {
	Timeframe   Timeframe    `json:"timeframe"`
	Trend       Trend        `json:"trend"`
	Signal      SignalAction `json:"signal"`
	Strength    float64      `json:"strength"`
	Support     float64      `json:"support"`
	Resistance  float64      `json:"resistance"`
	LastUpdated time.Time    `json:"last_updated"`
}

type BaseTrend string

const (
	BaseUptrend   BaseTrend = "Uptrend"
	BaseDowntrend BaseTrend = "Downtrend"
	BaseSideways  BaseTrend = "Sideways"
)

type StrengthLabel string

const (
	StrengthStrong StrengthLabel = "Strong"
	StrengthNormal StrengthLabel = ""
	StrengthWeak   StrengthLabel = "Weak"
)

type AggregateAssessment struct {
	BaseTrend          BaseTrend     `json:"base_trend"`
	StrengthLabel      StrengthLabel `json:"strength_label"`
	SuccessProbability int           `json:"success_probability"`
	Label              string        `json:"label"`
	DisplayColor       string        `json:"display_color"`
	UptrendWeight      int           `json:"uptrend_weight"`
	DowntrendWeight    int           `json:"downtrend_weight"`
}

package signal

import "trendboard/internal/domain"

const (
	strongThreshold = 80
	weakThreshold   = 50
)

// Aggregate reduces per-timeframe signals to a single assessment using the
// fixed timeframe weights. Sideways signals and unknown timeframes add nothing.
// A timeframe counts once; the last signal given for it wins.
func Aggregate(signals []domain.TimeframeSignal) domain.AggregateAssessment {
	byTimeframe := make(map[domain.Timeframe]domain.Trend, len(signals))
	for _, s := range signals {
		byTimeframe[s.Timeframe] = s.Trend
	}

	var up, down int
	for tf, trend := range byTimeframe {
		w := tf.Weight()
		switch trend {
		case domain.TrendUp:
			up += w
		case domain.TrendDown:
			down += w
		}
	}

	probability := max(up, down)

	base := domain.BaseSideways
	switch {
	case up > down:
		base = domain.BaseUptrend
	case down > up:
		base = domain.BaseDowntrend
	}

	strength := strengthFor(probability)
	label := string(base)
	if strength != domain.StrengthNormal {
		label = string(strength) + " " + label
	}

	return domain.AggregateAssessment{
		BaseTrend:          base,
		StrengthLabel:      strength,
		SuccessProbability: probability,
		Label:              label,
		DisplayColor:       DisplayColor(base, probability),
		UptrendWeight:      up,
		DowntrendWeight:    down,
	}
}

func strengthFor(probability int) domain.StrengthLabel {
	switch {
	case probability > strongThreshold:
		return domain.StrengthStrong
	case probability <= weakThreshold:
		return domain.StrengthWeak
	default:
		return domain.StrengthNormal
	}
}

// DisplayColor picks one of three shades per trend family by probability.
func DisplayColor(base domain.BaseTrend, probability int) string {
	family := "yellow"
	switch base {
	case domain.BaseUptrend:
		family = "green"
	case domain.BaseDowntrend:
		family = "red"
	}

	shade := "300"
	switch {
	case probability > strongThreshold:
		shade = "500"
	case probability > weakThreshold:
		shade = "400"
	}
	return "text-" + family + "-" + shade
}

// Info converts an analysis into the badge shown by the widgets. A nil
// analysis yields the loading badge.
func Info(a *domain.Analysis) domain.SignalInfo {
	if a == nil {
		return domain.LoadingSignalInfo
	}
	return domain.SignalInfo{
		Status:             a.Assessment.Label,
		Color:              a.Assessment.DisplayColor,
		SuccessProbability: a.Assessment.SuccessProbability,
	}
}

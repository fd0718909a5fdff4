package provider

import (
	"math"
	"sort"
	"time"

	"trendboard/internal/domain"
)

func sortCandles(c []domain.Candle) {
	sort.Slice(c, func(i, j int) bool {
		return c[i].OpenTime.Before(c[j].OpenTime)
	})
}

// MergeCandles folds ascending candles into buckets of the given width,
// aligned to multiples of width since the Unix epoch.
func MergeCandles(in []domain.Candle, width time.Duration) []domain.Candle {
	if len(in) == 0 || width <= 0 {
		return nil
	}
	widthMs := width.Milliseconds()

	out := make([]domain.Candle, 0, len(in)/4+1)
	var cur domain.Candle
	var curStart int64
	has := false
	for _, c := range in {
		start := (c.OpenTime.UnixMilli() / widthMs) * widthMs
		if has && start != curStart {
			out = append(out, cur)
			has = false
		}
		if !has {
			curStart = start
			cur = domain.Candle{
				OpenTime: time.UnixMilli(start).UTC(),
				Open:     c.Open,
				High:     c.High,
				Low:      c.Low,
				Close:    c.Close,
				Volume:   c.Volume,
			}
			has = true
			continue
		}
		cur.High = math.Max(cur.High, c.High)
		cur.Low = math.Min(cur.Low, c.Low)
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if has {
		out = append(out, cur)
	}
	return out
}

// ComputeStats summarizes the trailing window of daily closes. Volatility is
// the standard deviation of close-to-close returns in percent.
func ComputeStats(daily []domain.Candle, window int) *domain.QuoteStats {
	if len(daily) == 0 {
		return nil
	}
	if window > 0 && len(daily) > window {
		daily = daily[len(daily)-window:]
	}

	closes := make([]float64, len(daily))
	stats := &domain.QuoteStats{Min: math.Inf(1), Max: math.Inf(-1), Samples: len(daily)}
	for i, c := range daily {
		closes[i] = c.Close
		stats.Min = math.Min(stats.Min, c.Close)
		stats.Max = math.Max(stats.Max, c.Close)
	}
	stats.Average, _ = meanStd(closes)

	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	_, std := meanStd(returns)
	stats.Volatility = std * 100
	return stats
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	if len(values) == 1 {
		return mean, 0
	}
	for _, v := range values {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}

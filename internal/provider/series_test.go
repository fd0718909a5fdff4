package provider

import (
	"math"
	"testing"
	"time"

	"trendboard/internal/domain"
)

func TestMergeCandlesAlignsToBuckets(t *testing.T) {
	base := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
	var hourly []domain.Candle
	for i := 0; i < 6; i++ {
		v := float64(i + 1)
		hourly = append(hourly, domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     v, High: v + 0.5, Low: v - 0.5, Close: v, Volume: 1,
		})
	}

	merged := MergeCandles(hourly, 4*time.Hour)
	if len(merged) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(merged))
	}
	first, second := merged[0], merged[1]
	if !first.OpenTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first bucket %s", first.OpenTime)
	}
	if first.Open != 1 || first.Close != 2 || first.High != 2.5 || first.Low != 0.5 || first.Volume != 2 {
		t.Fatalf("unexpected first bucket %+v", first)
	}
	if second.Open != 3 || second.Close != 6 || second.High != 6.5 || second.Low != 2.5 || second.Volume != 4 {
		t.Fatalf("unexpected second bucket %+v", second)
	}
	if MergeCandles(nil, time.Hour) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestComputeStats(t *testing.T) {
	var daily []domain.Candle
	for _, c := range []float64{999, 100, 110, 99} {
		daily = append(daily, domain.Candle{Close: c})
	}
	stats := ComputeStats(daily, 3)
	if stats.Samples != 3 || stats.Min != 99 || stats.Max != 110 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if math.Abs(stats.Average-103) > 1e-9 {
		t.Fatalf("expected average 103, got %f", stats.Average)
	}
	// Returns +10% and -10%: population std dev 10%.
	if math.Abs(stats.Volatility-10) > 1e-9 {
		t.Fatalf("expected volatility 10, got %f", stats.Volatility)
	}
	if ComputeStats(nil, 3) != nil {
		t.Fatal("expected nil stats for no data")
	}
}

func TestFallbackValues(t *testing.T) {
	if p, c := FallbackValues("LINK", domain.KindCrypto); p != 16.35 || c != 2.78 {
		t.Fatalf("unexpected LINK fallback %f %f", p, c)
	}
	if p, c := FallbackValues("USD/JPY", domain.KindForex); p != 156.78 || c != 0.45 {
		t.Fatalf("unexpected USD/JPY fallback %f %f", p, c)
	}
	if p, c := FallbackValues("XAU/USD", domain.KindCommodity); p != 100 || c != 1 {
		t.Fatalf("unexpected default fallback %f %f", p, c)
	}
}

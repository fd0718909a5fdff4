package handler

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/chart"
	"trendboard/internal/domain"
	"trendboard/internal/repository"
)

func chartCandles(n int) []domain.Candle {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, n)
	for i := range out {
		p := 100 + float64(i)
		out[i] = domain.Candle{OpenTime: base.Add(time.Duration(i) * 24 * time.Hour), Open: p, High: p + 2, Low: p - 2, Close: p + 1}
	}
	return out
}

func newChartHandler(t *testing.T) (*Handler, *repository.CandleRepository) {
	t.Helper()
	h, _ := newTestHandler("BTC")
	repo := repository.NewCandleRepository(trace.NewNoopTracerProvider().Tracer("chart-test"))
	return h.WithCharts(repo, chart.NewRenderer()), repo
}

func TestGetChartRendersPNG(t *testing.T) {
	h, repo := newChartHandler(t)
	if err := repo.UpsertCandles(context.Background(), "BTC", map[domain.Timeframe][]domain.Candle{
		domain.Timeframe1Day: chartCandles(220),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	w := serve(h, http.MethodGet, "/api/analysis/btc/chart")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Fatalf("decode png: %v", err)
	}
}

func TestGetChartErrors(t *testing.T) {
	h, _ := newChartHandler(t)

	tests := []struct {
		target string
		status int
	}{
		{"/api/analysis/DOGE/chart", http.StatusBadRequest},
		{"/api/analysis/BTC/chart?timeframe=2hour", http.StatusBadRequest},
		{"/api/analysis/BTC/chart?timeframe=1hour", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := serve(h, http.MethodGet, tt.target); w.Code != tt.status {
			t.Fatalf("%s: expected %d, got %d", tt.target, tt.status, w.Code)
		}
	}
}

func TestChartRouteOnlyWhenEnabled(t *testing.T) {
	h, _ := newTestHandler("BTC")
	if w := serve(h, http.MethodGet, "/api/analysis/BTC/chart"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without chart support, got %d", w.Code)
	}
}

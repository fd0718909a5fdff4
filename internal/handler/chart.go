package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"trendboard/internal/chart"
	"trendboard/internal/domain"
)

// CandleLister returns stored candles, oldest first. A limit <= 0 returns all.
type CandleLister interface {
	GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error)
}

// WithCharts enables the chart route.
func (h *Handler) WithCharts(candles CandleLister, renderer *chart.Renderer) *Handler {
	h.candles = candles
	h.charts = renderer
	return h
}

// GetChart godoc
// @Summary      Get trend chart
// @Description  Renders candles with the 50/200 moving averages, support and resistance for one timeframe
// @Tags         analysis
// @Produce      png
// @Param        symbol     path   string  true   "Instrument symbol"
// @Param        timeframe  query  string  false  "Timeframe (default 1day)"
// @Success      200  {file}    binary
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/analysis/{symbol}/chart [get]
func (h *Handler) GetChart(c *gin.Context) {
	if h.analysisService == nil || h.candles == nil || h.charts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chart rendering unavailable"})
		return
	}

	inst, ok := domain.LookupInstrument(c.Param("symbol"))
	if !ok {
		respondError(c, domain.ErrUnsupportedSymbol)
		return
	}
	tf, err := domain.ParseTimeframe(c.DefaultQuery("timeframe", string(domain.Timeframe1Day)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "timeframes": domain.Timeframes})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", inst.Symbol), attribute.String("timeframe", string(tf)))

	candles, err := h.candles.GetCandles(ctx, inst.Symbol, tf, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(candles) < 2 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no candles stored yet for " + inst.Symbol + " " + string(tf)})
		return
	}

	analysis, err := h.analysisService.GetAnalysis(ctx, inst.Symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	sig := domain.TimeframeSignal{Timeframe: tf, Trend: domain.TrendSideways}
	for _, s := range analysis.Signals {
		if s.Timeframe == tf {
			sig = s
			break
		}
	}

	img, err := h.charts.RenderTrendChart(candles, sig)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, img.MimeType, img.Bytes)
}

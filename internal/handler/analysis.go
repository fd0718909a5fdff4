package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"trendboard/internal/advisor"
	"trendboard/internal/domain"
)

// ListAnalyses godoc
// @Summary      List analyses
// @Description  Returns the latest multi-timeframe analysis for every watched instrument
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/analysis [get]
func (h *Handler) ListAnalyses(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-analyses")
	defer span.End()

	analyses := h.analysisService.ListAnalyses()
	if len(analyses) == 0 {
		var err error
		analyses, err = h.analysisService.AnalyzeAll(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("partial analysis pass")
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"source":   h.analysisService.SourceName(),
		"analyses": analyses,
	})
}

// GetAnalysis godoc
// @Summary      Get analysis by symbol
// @Description  Returns per-timeframe signals and the weighted assessment for one instrument
// @Tags         analysis
// @Produce      json
// @Param        symbol  path  string  true  "Instrument symbol"
// @Success      200  {object}  domain.Analysis
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/analysis/{symbol} [get]
func (h *Handler) GetAnalysis(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-analysis")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", c.Param("symbol")))

	analysis, err := h.analysisService.GetAnalysis(ctx, c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetSignalInfo godoc
// @Summary      Get display badge
// @Description  Returns label, color class and success probability; "Loading" until the first analysis completes
// @Tags         analysis
// @Produce      json
// @Param        symbol  path  string  true  "Instrument symbol"
// @Success      200  {object}  domain.SignalInfo
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/analysis/{symbol}/signal-info [get]
func (h *Handler) GetSignalInfo(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	inst, ok := domain.LookupInstrument(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + c.Param("symbol"),
			"supported_symbols": domain.SupportedSymbols(),
		})
		return
	}
	c.JSON(http.StatusOK, h.analysisService.SignalInfo(inst.Symbol))
}

// GetCommentary godoc
// @Summary      Get AI commentary
// @Description  Returns a short generated commentary on the latest analysis
// @Tags         analysis
// @Produce      json
// @Param        symbol  path  string  true  "Instrument symbol"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/analysis/{symbol}/commentary [get]
func (h *Handler) GetCommentary(c *gin.Context) {
	if !h.advisorService.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commentary disabled, set OPENAI_API_KEY to enable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-commentary")
	defer span.End()

	text, err := h.advisorService.Commentary(ctx, c.Param("symbol"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "commentary": text})
	case errors.Is(err, domain.ErrUnsupportedSymbol):
		respondError(c, err)
	case errors.Is(err, advisor.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

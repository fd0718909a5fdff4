package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/advisor"
	"trendboard/internal/chart"
	"trendboard/internal/domain"
	"trendboard/internal/service"
)

type Handler struct {
	tracer          trace.Tracer
	quoteService    *service.QuoteService
	analysisService *service.AnalysisService
	advisorService  *advisor.AdvisorService
	hub             *Hub
	candles         CandleLister
	charts          *chart.Renderer
}

func New(
	tracer trace.Tracer,
	quoteService *service.QuoteService,
	analysisService *service.AnalysisService,
	advisorService *advisor.AdvisorService,
	hub *Hub,
) *Handler {
	return &Handler{
		tracer:          tracer,
		quoteService:    quoteService,
		analysisService: analysisService,
		advisorService:  advisorService,
		hub:             hub,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/quotes", h.ListQuotes)
	r.GET("/api/quotes/:symbol", h.GetQuote)
	r.GET("/api/analysis", h.ListAnalyses)
	r.GET("/api/analysis/:symbol", h.GetAnalysis)
	r.GET("/api/analysis/:symbol/signal-info", h.GetSignalInfo)
	r.GET("/api/analysis/:symbol/commentary", h.GetCommentary)
	r.GET("/api/timeframes", h.ListTimeframes)
	if h.candles != nil {
		r.GET("/api/analysis/:symbol/chart", h.GetChart)
	}
	if h.hub != nil {
		r.GET("/ws/analysis", h.hub.ServeWS)
	}
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	}
	if h.analysisService != nil {
		resp["signal_source"] = h.analysisService.SourceName()
	}
	if h.hub != nil {
		resp["stream_clients"] = h.hub.ClientCount()
	}
	c.JSON(http.StatusOK, resp)
}

// ListTimeframes godoc
// @Summary      List timeframes and weights
// @Description  Returns the six analysis timeframes in order with their aggregation weights
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/timeframes [get]
func (h *Handler) ListTimeframes(c *gin.Context) {
	type entry struct {
		Timeframe domain.Timeframe `json:"timeframe"`
		Weight    int              `json:"weight"`
	}
	out := make([]entry, 0, len(domain.Timeframes))
	for _, tf := range domain.Timeframes {
		out = append(out, entry{Timeframe: tf, Weight: tf.Weight()})
	}
	c.JSON(http.StatusOK, gin.H{"timeframes": out})
}

// respondError maps service errors to status codes.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrUnsupportedSymbol) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             err.Error(),
			"supported_symbols": domain.SupportedSymbols(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

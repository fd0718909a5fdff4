package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListQuotes godoc
// @Summary      List instrument quotes
// @Description  Returns the latest quote per watched instrument, or live quotes for the given symbols
// @Tags         quotes
// @Produce      json
// @Param        symbols  query  string  false  "Comma-separated symbols (e.g., BTC,EUR-USD)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/quotes [get]
func (h *Handler) ListQuotes(c *gin.Context) {
	if h.quoteService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quote service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-quotes")
	defer span.End()

	if raw := strings.TrimSpace(c.Query("symbols")); raw != "" {
		symbols := strings.Split(raw, ",")
		quotes, err := h.quoteService.GetQuotes(ctx, symbols, false)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"quotes": quotes})
		return
	}

	quotes := h.quoteService.Latest()
	if len(quotes) < len(h.quoteService.Symbols()) {
		var err error
		if quotes, err = h.quoteService.Refresh(ctx, false); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// GetQuote godoc
// @Summary      Get quote by symbol
// @Description  Returns the quote for one instrument; history=true adds daily stats and per-timeframe candles
// @Tags         quotes
// @Produce      json
// @Param        symbol   path   string  true   "Instrument symbol (e.g., BTC, EUR-USD, XAUUSD)"
// @Param        history  query  bool    false  "Include stats and candles"
// @Success      200  {object}  domain.InstrumentQuote
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/quotes/{symbol} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	if h.quoteService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quote service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-quote")
	defer span.End()

	symbol := c.Param("symbol")
	span.SetAttributes(attribute.String("symbol", symbol))

	withHistory := false
	if raw := strings.TrimSpace(c.Query("history")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "history must be a boolean"})
			return
		}
		withHistory = v
	}

	if withHistory {
		quotes, err := h.quoteService.GetQuotes(ctx, []string{symbol}, true)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, quotes[0])
		return
	}

	quote, err := h.quoteService.GetQuote(ctx, symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

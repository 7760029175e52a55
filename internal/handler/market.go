package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetQuote godoc
// @Summary      Get the latest traded price for an instrument
// @Description  Returns the last traded price, served from cache when fresh
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Instrument symbol (e.g., NIFTYBEES)"
// @Success      200  {object}  domain.Quote
// @Failure      400  {object}  map[string]string
// @Router       /api/quote/{symbol} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-quote")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	if _, ok := domain.InstrumentToken[symbol]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}

	quote, err := h.market.GetQuote(ctx, symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetBars godoc
// @Summary      Get historical OHLCV bars
// @Description  Returns stored bars for an instrument and interval, oldest first
// @Tags         market
// @Produce      json
// @Param        symbol    path   string  true   "Instrument symbol (e.g., NIFTY_50)"
// @Param        interval  query  string  false  "Bar interval (5minute, 15minute, 30minute, 60minute, day)"  default(30minute)
// @Param        limit     query  int     false  "Number of bars (default 100, max 500)"  default(100)
// @Param        from      query  string  false  "Range start, RFC 3339 (with to, overrides limit)"
// @Param        to        query  string  false  "Range end, RFC 3339"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/bars/{symbol} [get]
func (h *Handler) GetBars(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-bars")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	if _, ok := domain.InstrumentToken[symbol]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}

	interval := c.DefaultQuery("interval", "30minute")
	validInterval := false
	for _, si := range domain.SupportedIntervals {
		if interval == si {
			validInterval = true
			break
		}
	}
	if !validInterval {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return
	}

	var bars []domain.Bar
	var err error
	if c.Query("from") != "" || c.Query("to") != "" {
		from, ferr := time.Parse(time.RFC3339, c.Query("from"))
		to, terr := time.Parse(time.RFC3339, c.Query("to"))
		if ferr != nil || terr != nil || !to.After(from) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC 3339 timestamps with from < to"})
			return
		}
		bars, err = h.market.GetBarsInRange(ctx, symbol, interval, from, to)
	} else {
		limit := 100
		if l := c.Query("limit"); l != "" {
			if n, perr := strconv.Atoi(l); perr == nil && n > 0 && n <= 500 {
				limit = n
			}
		}
		bars, err = h.market.GetRecentBars(ctx, symbol, interval, limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"interval": interval,
		"bars":     bars,
	})
}

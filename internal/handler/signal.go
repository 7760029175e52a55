package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSignal godoc
// @Summary      Get the latest strategy signal
// @Description  Returns the most recent signal evaluation, served from cache when fresh
// @Tags         signal
// @Produce      json
// @Success      200  {object}  domain.SignalResult
// @Failure      500  {object}  map[string]string
// @Router       /api/signal [get]
func (h *Handler) GetSignal(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal")
	defer span.End()

	result, err := h.signals.Latest(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// EvaluateSignal godoc
// @Summary      Force a fresh signal evaluation
// @Description  Re-runs the strategy on the latest stored bars, bypassing the cache
// @Tags         signal
// @Produce      json
// @Success      200  {object}  domain.SignalResult
// @Failure      500  {object}  map[string]string
// @Router       /api/signal/evaluate [post]
func (h *Handler) EvaluateSignal(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.evaluate-signal")
	defer span.End()

	result, err := h.signals.Evaluate(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetRiskStatus godoc
// @Summary      Get the current risk session state
// @Description  Returns daily PnL, drawdown, trade count, circuit breaker status, and recorded risk events
// @Tags         risk
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/risk [get]
func (h *Handler) GetRiskStatus(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-risk-status")
	defer span.End()

	halted, reason := h.riskMgr.ShouldStopTrading()

	c.JSON(http.StatusOK, gin.H{
		"trading_halted":    halted,
		"halt_reason":       reason,
		"daily_pnl":         h.riskMgr.DailyPnL(),
		"drawdown":          h.riskMgr.Drawdown(),
		"trade_count_today": h.riskMgr.TradeCountToday(),
		"events":            h.riskMgr.Events(),
	})
}

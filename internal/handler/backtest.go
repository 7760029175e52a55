package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prajal/Multi-strategy-trading/internal/backtest"
	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type backtestRequest struct {
	Profile        string  `json:"profile"`
	Symbol         string  `json:"symbol"`
	Days           int     `json:"days"`
	Seed           int64   `json:"seed"`
	Source         string  `json:"source"`
	InitialCapital float64 `json:"initial_capital"`
	Persist        bool    `json:"persist"`
}

// RunBacktest godoc
// @Summary      Run a backtest
// @Description  Runs the strategy over sample or stored bars and returns the full result. Set persist=true to save the run.
// @Tags         backtests
// @Accept       json
// @Produce      json
// @Param        request  body  backtestRequest  false  "Backtest parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/backtests [post]
func (h *Handler) RunBacktest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-backtest")
	defer span.End()

	req := backtestRequest{
		Profile:        h.cfg.ProfileName,
		Symbol:         h.cfg.SignalSymbol,
		Days:           30,
		Seed:           42,
		Source:         "sample",
		InitialCapital: 100000,
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}
	span.SetAttributes(
		attribute.String("profile", req.Profile),
		attribute.String("source", req.Source),
	)

	profile, err := config.LoadProfile(strings.ToLower(req.Profile))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Days <= 0 || req.InitialCapital <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days and initial_capital must be positive"})
		return
	}

	var bars []domain.Bar
	switch req.Source {
	case "sample":
		bars = backtest.GenerateSampleBars(req.Symbol, req.Days, req.Seed)
	case "db":
		// ~13 bars per 30minute session
		bars, err = h.market.GetRecentBars(ctx, req.Symbol, h.cfg.BarInterval, req.Days*13)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be \"sample\" or \"db\""})
		return
	}

	result, err := backtest.NewEngine(profile, req.InitialCapital).Run(bars)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var runID int64
	if req.Persist {
		if h.backtests == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtest persistence unavailable"})
			return
		}
		runID, err = h.backtests.SaveRun(ctx, result)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"result": result,
	})
}

// ListBacktests godoc
// @Summary      List saved backtest runs
// @Description  Returns summaries of persisted backtest runs, newest first
// @Tags         backtests
// @Produce      json
// @Param        limit  query  int  false  "Number of runs (default 20, max 100)"  default(20)
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/backtests [get]
func (h *Handler) ListBacktests(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-backtests")
	defer span.End()

	if h.backtests == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtest persistence unavailable"})
		return
	}

	limit := 20
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	runs, err := h.backtests.ListRuns(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetBacktest godoc
// @Summary      Get a saved backtest run
// @Description  Returns the full result of one persisted backtest run
// @Tags         backtests
// @Produce      json
// @Param        id  path  int  true  "Run ID"
// @Success      200  {object}  repository.BacktestRun
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/backtests/{id} [get]
func (h *Handler) GetBacktest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-backtest")
	defer span.End()

	if h.backtests == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtest persistence unavailable"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.backtests.GetRun(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, run)
}

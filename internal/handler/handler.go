package handler

import (
	"context"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/repository"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// SignalSource serves strategy evaluations.
type SignalSource interface {
	Latest(ctx context.Context) (*domain.SignalResult, error)
	Evaluate(ctx context.Context) (*domain.SignalResult, error)
}

// MarketSource serves quotes and stored bars.
type MarketSource interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
	GetRecentBars(ctx context.Context, symbol, interval string, limit int) ([]domain.Bar, error)
	GetBarsInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Bar, error)
}

// RiskStatus exposes the risk manager's session state.
type RiskStatus interface {
	ShouldStopTrading() (bool, string)
	DailyPnL() float64
	Drawdown() float64
	TradeCountToday() int
	Events() []domain.RiskEvent
}

// BacktestStore persists and serves backtest runs.
type BacktestStore interface {
	SaveRun(ctx context.Context, result *domain.BacktestResult) (int64, error)
	GetRun(ctx context.Context, id int64) (*repository.BacktestRun, error)
	ListRuns(ctx context.Context, limit int) ([]repository.BacktestRun, error)
}

type Handler struct {
	tracer    trace.Tracer
	cfg       config.Config
	signals   SignalSource
	market    MarketSource
	riskMgr   RiskStatus
	backtests BacktestStore
}

func New(
	tracer trace.Tracer,
	cfg config.Config,
	signals SignalSource,
	market MarketSource,
	riskMgr RiskStatus,
	backtests BacktestStore,
) *Handler {
	return &Handler{
		tracer:    tracer,
		cfg:       cfg,
		signals:   signals,
		market:    market,
		riskMgr:   riskMgr,
		backtests: backtests,
	}
}

// RegisterRoutes wires all endpoints. The /api group is guarded by the API
// key middleware; health stays open for probes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(h.cfg.APIKey))
	api.GET("/signal", h.GetSignal)
	api.POST("/signal/evaluate", h.EvaluateSignal)
	api.GET("/quote/:symbol", h.GetQuote)
	api.GET("/bars/:symbol", h.GetBars)
	api.GET("/risk", h.GetRiskStatus)
	api.GET("/profiles", h.GetProfiles)
	api.POST("/backtests", h.RunBacktest)
	api.GET("/backtests", h.ListBacktests)
	api.GET("/backtests/:id", h.GetBacktest)
}

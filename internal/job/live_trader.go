package job

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/risk"
	"github.com/prajal/Multi-strategy-trading/internal/sizing"

	"go.opentelemetry.io/otel/trace"
)

// MarketData refreshes and serves market data for the trading cycle.
type MarketData interface {
	RefreshBars(ctx context.Context, symbol, interval string, days int) (int, error)
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// SignalEvaluator produces a fresh strategy evaluation on stored bars.
type SignalEvaluator interface {
	Evaluate(ctx context.Context) (*domain.SignalResult, error)
}

// OrderPlacer submits orders to the broker.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, symbol, transactionType string, quantity int) (string, error)
}

// Notifier pushes trade notifications to the operator. May be nil.
type Notifier interface {
	Notify(msg string)
}

// LiveTrader runs the intraday trading cycle: refresh data, evaluate the
// strategy, size and risk-check entries, and manage the open position.
// At most one position is open at a time. Any error inside a cycle is
// logged and retried on the next tick.
type LiveTrader struct {
	tracer   trace.Tracer
	cfg      config.Config
	profile  config.Profile
	market   MarketData
	signals  SignalEvaluator
	broker   OrderPlacer
	sizer    *sizing.Sizer
	riskMgr  *risk.Manager
	notifier Notifier

	balance  float64
	position *domain.Position
	lastDay  string

	openMin      int
	closeMin     int
	squareOffMin int

	now func() time.Time
	loc *time.Location
}

func NewLiveTrader(
	tracer trace.Tracer,
	cfg config.Config,
	profile config.Profile,
	market MarketData,
	signals SignalEvaluator,
	broker OrderPlacer,
	riskMgr *risk.Manager,
	notifier Notifier,
	initialBalance float64,
) *LiveTrader {
	return &LiveTrader{
		tracer:       tracer,
		cfg:          cfg,
		profile:      profile,
		market:       market,
		signals:      signals,
		broker:       broker,
		sizer:        sizing.NewSizer(profile),
		riskMgr:      riskMgr,
		notifier:     notifier,
		balance:      initialBalance,
		openMin:      parseClock(cfg.MarketOpen, 9*60+15),
		closeMin:     parseClock(cfg.MarketClose, 15*60+30),
		squareOffMin: parseClock(cfg.SquareOffTime, 15*60+20),
		now:          time.Now,
		loc:          time.FixedZone("IST", 5*3600+30*60),
	}
}

// Start runs the trading loop. Blocks until ctx is cancelled.
func (t *LiveTrader) Start(ctx context.Context) {
	log.Printf("Live trader starting (signal=%s traded=%s interval=%s poll=%ds)",
		t.cfg.SignalSymbol, t.cfg.TradingSymbol, t.cfg.BarInterval, t.cfg.PollSecs)

	t.runCycle(ctx)

	ticker := time.NewTicker(time.Duration(t.cfg.PollSecs) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Live trader stopped")
			return
		case <-ticker.C:
			t.runCycle(ctx)
		}
	}
}

func (t *LiveTrader) runCycle(ctx context.Context) {
	ctx, span := t.tracer.Start(ctx, "live-trader.cycle")
	defer span.End()

	now := t.now().In(t.loc)
	t.rolloverDay(now)

	minute := minuteOfDay(now)
	if minute < t.openMin || minute >= t.closeMin {
		return
	}

	if t.position != nil && minute >= t.squareOffMin {
		t.exitPosition(ctx, domain.ExitSquareOff)
		return
	}

	if _, err := t.market.RefreshBars(ctx, t.cfg.SignalSymbol, t.cfg.BarInterval, t.cfg.HistoricalDays); err != nil {
		log.Printf("bar refresh error: %v", err)
		return
	}

	if t.position != nil {
		t.managePosition(ctx)
		return
	}

	if stop, reason := t.riskMgr.ShouldStopTrading(); stop {
		log.Printf("trading halted: %s", reason)
		return
	}

	result, err := t.signals.Evaluate(ctx)
	if err != nil {
		log.Printf("signal evaluation error: %v", err)
		return
	}
	if result.Direction == domain.DirectionHold {
		return
	}

	t.openPosition(ctx, result, now)
}

// managePosition checks the open position against its stop, target, and a
// signal reversal, in that order.
func (t *LiveTrader) managePosition(ctx context.Context) {
	quote, err := t.market.GetQuote(ctx, t.cfg.TradingSymbol)
	if err != nil {
		log.Printf("quote error for %s: %v", t.cfg.TradingSymbol, err)
		return
	}
	price := quote.Price
	pos := t.position

	t.riskMgr.UpdatePortfolioValue(t.balance + pos.MarginUsed + pos.UnrealizedPnL(price))

	long := pos.Quantity > 0
	if (long && price <= pos.StopLoss) || (!long && price >= pos.StopLoss) {
		t.exitPositionAt(ctx, price, domain.ExitStopLoss)
		return
	}
	if (long && price >= pos.TakeProfit) || (!long && price <= pos.TakeProfit) {
		t.exitPositionAt(ctx, price, domain.ExitTakeProfit)
		return
	}

	result, err := t.signals.Evaluate(ctx)
	if err != nil {
		log.Printf("signal evaluation error: %v", err)
		return
	}
	if (long && result.Direction == domain.DirectionSell) ||
		(!long && result.Direction == domain.DirectionBuy) {
		t.exitPositionAt(ctx, price, domain.ExitReversal)
	}
}

func (t *LiveTrader) openPosition(ctx context.Context, result *domain.SignalResult, now time.Time) {
	quote, err := t.market.GetQuote(ctx, t.cfg.TradingSymbol)
	if err != nil {
		log.Printf("quote error for %s: %v", t.cfg.TradingSymbol, err)
		return
	}
	signalQuote, err := t.market.GetQuote(ctx, t.cfg.SignalSymbol)
	if err != nil {
		log.Printf("quote error for %s: %v", t.cfg.SignalSymbol, err)
		return
	}

	atr := 0.0
	if result.Snapshot != nil {
		atr = result.Snapshot.ATR
	}

	sz, err := t.sizer.Size(t.balance, quote.Price, atr, signalQuote.Price, result.Confidence,
		t.cfg.SignalSymbol, t.cfg.TradingSymbol)
	if err != nil {
		log.Printf("sizing error: %v", err)
		return
	}
	if sz.Quantity == 0 {
		log.Printf("skipping %s signal: sized to zero quantity", result.Direction)
		return
	}

	long := result.Direction == domain.DirectionBuy
	stop := quote.Price - sz.StopLossDistance
	target := quote.Price + sz.StopLossDistance*t.profile.TakeProfitRiskRatio
	if !long {
		stop = quote.Price + sz.StopLossDistance
		target = quote.Price - sz.StopLossDistance*t.profile.TakeProfitRiskRatio
	}

	assessment := t.riskMgr.AssessTrade(quote.Price, sz.Quantity, stop, t.balance)
	qty := sz.Quantity
	switch assessment.Recommendation {
	case domain.RiskReject:
		log.Printf("trade rejected by risk manager (score %d): %s",
			assessment.RiskScore, strings.Join(assessment.Warnings, "; "))
		return
	case domain.RiskReduceSize:
		log.Printf("reducing size %d -> %d on risk manager advice", qty, assessment.SuggestedQuantity)
		qty = assessment.SuggestedQuantity
	}
	if qty <= 0 {
		return
	}

	margin := float64(qty) * quote.Price / sz.LeverageUsed
	if margin > t.balance*t.profile.CapitalBuffer {
		log.Printf("skipping %s signal: margin %.2f exceeds buffered balance", result.Direction, margin)
		return
	}

	side := "BUY"
	signedQty := qty
	if !long {
		side = "SELL"
		signedQty = -qty
	}

	orderID, err := t.broker.PlaceOrder(ctx, t.cfg.TradingSymbol, side, qty)
	if err != nil {
		log.Printf("order placement error: %v", err)
		return
	}

	t.position = &domain.Position{
		Symbol:     t.cfg.TradingSymbol,
		Quantity:   signedQty,
		EntryPrice: quote.Price,
		EntryTime:  now,
		StopLoss:   stop,
		TakeProfit: target,
		Confidence: result.Confidence,
		Quality:    result.QualityScore,
		ATR:        sz.ScaledATR,
		MarginUsed: margin,
	}
	t.balance -= margin
	t.riskMgr.RecordTradeOpen()

	msg := fmt.Sprintf("%s %d %s @ %.2f (conf %.2f, stop %.2f, target %.2f, order %s)",
		side, qty, t.cfg.TradingSymbol, quote.Price, result.Confidence, stop, target, orderID)
	log.Println("Opened position:", msg)
	t.notify(msg)
}

// exitPosition closes at the latest quote.
func (t *LiveTrader) exitPosition(ctx context.Context, reason string) {
	quote, err := t.market.GetQuote(ctx, t.cfg.TradingSymbol)
	if err != nil {
		log.Printf("quote error during %s exit: %v", reason, err)
		return
	}
	t.exitPositionAt(ctx, quote.Price, reason)
}

func (t *LiveTrader) exitPositionAt(ctx context.Context, price float64, reason string) {
	pos := t.position
	if pos == nil {
		return
	}

	side := "SELL"
	qty := pos.Quantity
	if qty < 0 {
		side = "BUY"
		qty = -qty
	}

	orderID, err := t.broker.PlaceOrder(ctx, pos.Symbol, side, qty)
	if err != nil {
		log.Printf("exit order error (%s): %v", reason, err)
		return
	}

	pnl := pos.UnrealizedPnL(price)
	t.balance += pos.MarginUsed + pnl
	t.riskMgr.RecordTradeResult(pnl)
	t.riskMgr.UpdatePortfolioValue(t.balance)
	t.position = nil

	msg := fmt.Sprintf("%s: closed %d %s @ %.2f, PnL %.2f (order %s)",
		reason, qty, pos.Symbol, price, pnl, orderID)
	log.Println("Closed position:", msg)
	t.notify(msg)
}

func (t *LiveTrader) rolloverDay(now time.Time) {
	day := now.Format("2006-01-02")
	if t.lastDay != "" && t.lastDay != day {
		t.riskMgr.ResetDaily()
		log.Printf("new trading day %s, daily risk state reset", day)
	}
	t.lastDay = day
}

// Position returns the current open position, nil when flat.
func (t *LiveTrader) Position() *domain.Position {
	return t.position
}

// Balance returns free cash excluding margin locked in the open position.
func (t *LiveTrader) Balance() float64 {
	return t.balance
}

func (t *LiveTrader) notify(msg string) {
	if t.notifier != nil {
		t.notifier.Notify(msg)
	}
}

// parseClock converts "HH:MM" to minutes since midnight, falling back on
// malformed input.
func parseClock(s string, fallback int) int {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return fallback
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return fallback
	}
	return h*60 + m
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

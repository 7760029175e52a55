package backtest

import (
	"fmt"
	"log"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/risk"
	"github.com/prajal/Multi-strategy-trading/internal/signal"
	"github.com/prajal/Multi-strategy-trading/internal/sizing"
)

// Engine replays the live decision path bar by bar: signal, sizing, risk
// gate, fill, exit. It is fully deterministic: the same bars and profile
// produce bit-identical results. One position at a time, margin deducted
// from simulated cash while open.
type Engine struct {
	profile config.Profile
	engine  *signal.Engine
	sizer   *sizing.Sizer

	initialCapital float64
	verbose        bool
}

func NewEngine(profile config.Profile, initialCapital float64) *Engine {
	return &Engine{
		profile:        profile,
		engine:         signal.NewEngine(profile),
		sizer:          sizing.NewSizer(profile),
		initialCapital: initialCapital,
	}
}

// SetVerbose enables per-event progress logging.
func (e *Engine) SetVerbose(v bool) { e.verbose = v }

type runState struct {
	cash     float64
	position *domain.Position
	barsHeld int
	trades   []domain.Trade
	equity   []domain.EquityPoint
	riskMgr  *risk.Manager
}

// Run replays the strategy over the bars. Bars must be in ascending time
// order and cover at least the warm-up period.
func (e *Engine) Run(bars []domain.Bar) (*domain.BacktestResult, error) {
	warmup := e.profile.WarmupBars
	if len(bars) < warmup {
		return nil, fmt.Errorf("insufficient data: %d bars, need at least %d", len(bars), warmup)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return nil, fmt.Errorf("bars out of order at index %d", i)
		}
	}

	st := &runState{
		cash:    e.initialCapital,
		riskMgr: risk.NewManager(e.profile, e.initialCapital),
	}

	for i := warmup; i < len(bars); i++ {
		bar := bars[i]
		window := bars[:i+1]
		price := bar.Close

		// A new trading day clears daily counters and the breaker;
		// drawdown carries across days.
		if i > warmup && !sameDay(bars[i-1].Timestamp, bar.Timestamp) {
			st.riskMgr.ResetDaily()
		}

		value := st.cash + e.unrealized(st, price)
		st.riskMgr.UpdatePortfolioValue(value)
		st.equity = append(st.equity, domain.EquityPoint{
			Timestamp:      bar.Timestamp,
			PortfolioValue: value,
			Cash:           st.cash,
			UnrealizedPnL:  e.unrealized(st, price),
		})

		if st.position != nil {
			st.barsHeld++
			e.checkExits(st, window, bar)
		}

		if st.position == nil {
			if stop, reason := st.riskMgr.ShouldStopTrading(); stop {
				if e.verbose {
					log.Printf("backtest: trading halted at %s: %s", bar.Timestamp.Format("2006-01-02 15:04"), reason)
				}
				continue
			}
			res := e.engine.Evaluate(window)
			if res.Direction == domain.DirectionBuy || res.Direction == domain.DirectionSell {
				e.tryOpen(st, res, bar)
			}
		}
	}

	if st.position != nil {
		last := bars[len(bars)-1]
		e.closePosition(st, last.Timestamp, last.Close, domain.ExitEndOfData)
	}

	summary := computeSummary(bars[0].Timestamp, bars[len(bars)-1].Timestamp, e.initialCapital, st.cash, st.trades, st.equity)
	summary.Profile = e.profile.Name
	if len(bars) > 0 {
		summary.Symbol = bars[0].Symbol
	}
	return &domain.BacktestResult{
		Summary:     summary,
		Trades:      st.trades,
		EquityCurve: st.equity,
	}, nil
}

func (e *Engine) unrealized(st *runState, price float64) float64 {
	if st.position == nil {
		return 0
	}
	return st.position.UnrealizedPnL(price)
}

// checkExits evaluates exit conditions in strict priority: stop-loss,
// take-profit, signal reversal, max-hold timeout.
func (e *Engine) checkExits(st *runState, window []domain.Bar, bar domain.Bar) {
	pos := st.position
	price := bar.Close
	isLong := pos.Quantity > 0

	if (isLong && price <= pos.StopLoss) || (!isLong && price >= pos.StopLoss) {
		e.closePosition(st, bar.Timestamp, price, domain.ExitStopLoss)
		return
	}
	if (isLong && price >= pos.TakeProfit) || (!isLong && price <= pos.TakeProfit) {
		e.closePosition(st, bar.Timestamp, price, domain.ExitTakeProfit)
		return
	}

	if st.barsHeld >= e.profile.MinHoldBars {
		res := e.engine.Evaluate(window)
		if (isLong && res.Direction == domain.DirectionSell) || (!isLong && res.Direction == domain.DirectionBuy) {
			e.closePosition(st, bar.Timestamp, price, domain.ExitReversal)
			return
		}
	}

	if st.barsHeld >= e.profile.MaxHoldBars {
		e.closePosition(st, bar.Timestamp, price, domain.ExitMaxHold)
	}
}

// tryOpen runs sizing and the risk gate, then fills at the bar close.
func (e *Engine) tryOpen(st *runState, res domain.SignalResult, bar domain.Bar) {
	price := bar.Close
	atr := price * 0.02
	if res.Snapshot != nil && res.Snapshot.ATR > 0 {
		atr = res.Snapshot.ATR
	}

	sz, err := e.sizer.Size(st.cash, price, atr, price, res.Confidence, bar.Symbol, bar.Symbol)
	if err != nil || sz.Quantity < 1 {
		return
	}

	stopDistance := sz.StopLossDistance
	takeDistance := stopDistance * e.profile.TakeProfitRiskRatio
	var stopLoss, takeProfit float64
	if res.Direction == domain.DirectionBuy {
		stopLoss = price - stopDistance
		takeProfit = price + takeDistance
	} else {
		stopLoss = price + stopDistance
		takeProfit = price - takeDistance
	}

	assessment := st.riskMgr.AssessTrade(price, sz.Quantity, stopLoss, st.cash)
	qty := sz.Quantity
	switch assessment.Recommendation {
	case domain.RiskReject:
		if e.verbose {
			log.Printf("backtest: trade rejected at %s: %v", bar.Timestamp.Format("2006-01-02 15:04"), assessment.Warnings)
		}
		return
	case domain.RiskReduceSize:
		qty = assessment.SuggestedQuantity
	}
	if qty < 1 {
		return
	}

	margin := float64(qty) * price / sz.LeverageUsed
	if margin > st.cash*e.profile.CapitalBuffer {
		return
	}

	signedQty := qty
	if res.Direction == domain.DirectionSell {
		signedQty = -qty
	}
	st.position = &domain.Position{
		Symbol:     bar.Symbol,
		Quantity:   signedQty,
		EntryPrice: price,
		EntryTime:  bar.Timestamp,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Confidence: res.Confidence,
		Quality:    res.QualityScore,
		ATR:        atr,
		MarginUsed: margin,
	}
	st.barsHeld = 0
	st.cash -= margin
	st.riskMgr.RecordTradeOpen()
	if e.verbose {
		log.Printf("backtest: %s %d @ %.2f (conf %.2f)", res.Direction, qty, price, res.Confidence)
	}
}

func (e *Engine) closePosition(st *runState, ts time.Time, price float64, reason string) {
	pos := st.position
	st.position = nil
	st.barsHeld = 0

	qty := pos.Quantity
	if qty < 0 {
		qty = -qty
	}
	pnl := pos.UnrealizedPnL(price)
	pnlPercent := 0.0
	if pos.EntryPrice > 0 && qty > 0 {
		pnlPercent = pnl / (pos.EntryPrice * float64(qty)) * 100
	}

	st.cash += pos.MarginUsed + pnl
	st.riskMgr.RecordTradeResult(pnl)

	direction := domain.DirectionBuy
	if pos.Quantity < 0 {
		direction = domain.DirectionSell
	}
	st.trades = append(st.trades, domain.Trade{
		EntryTime:       pos.EntryTime,
		ExitTime:        ts,
		Direction:       direction,
		EntryPrice:      pos.EntryPrice,
		ExitPrice:       price,
		Quantity:        qty,
		PnL:             pnl,
		PnLPercent:      pnlPercent,
		StopLoss:        pos.StopLoss,
		TakeProfit:      pos.TakeProfit,
		ExitReason:      reason,
		Confidence:      pos.Confidence,
		DurationMinutes: int(ts.Sub(pos.EntryTime).Minutes()),
	})
	if e.verbose {
		log.Printf("backtest: closed %s: P&L %.2f", reason, pnl)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package domain

import (
	"encoding/json"
	"math"
	"time"
)

type SignalDirection string

const (
	DirectionBuy  SignalDirection = "BUY"
	DirectionSell SignalDirection = "SELL"
	DirectionHold SignalDirection = "HOLD"
)

// IndicatorSnapshot holds derived indicator values at a single bar. It is
// recomputed from trailing history on every request and never persisted.
type IndicatorSnapshot struct {
	SuperTrend    float64 `json:"supertrend"`
	SuperTrendDir int     `json:"supertrend_dir"` // +1 or -1
	RSI           float64 `json:"rsi"`
	MACDLine      float64 `json:"macd_line"`
	MACDSignal    float64 `json:"macd_signal"`
	MACDHist      float64 `json:"macd_hist"`
	ATR           float64 `json:"atr"`
	VolumeRatio   float64 `json:"volume_ratio"`
	RecentHigh    float64 `json:"recent_high"`
	RecentLow     float64 `json:"recent_low"`
}

// RegimeInfo classifies current volatility/trend/momentum conditions.
type RegimeInfo struct {
	SkipTrading   bool    `json:"skip_trading"`
	Reason        string  `json:"reason,omitempty"`
	AnnualizedVol float64 `json:"annualized_vol"`
	TrendStrength float64 `json:"trend_strength"` // bar position within its range, 0..1
	Momentum      float64 `json:"momentum"`       // absolute short-horizon return
}

// SignalResult is the immutable outcome of one signal evaluation.
type SignalResult struct {
	Direction     SignalDirection    `json:"direction"`
	Confidence    float64            `json:"confidence"`
	BuyScore      float64            `json:"buy_score"`
	SellScore     float64            `json:"sell_score"`
	QualityScore  float64            `json:"quality_score"`
	Confirmations []string           `json:"confirmations,omitempty"`
	Regime        *RegimeInfo        `json:"regime,omitempty"`
	Snapshot      *IndicatorSnapshot `json:"snapshot,omitempty"`
	Reason        string             `json:"reason,omitempty"`
}

// PositionSizing is the output of one sizing decision, computed fresh per
// entry. MarginRequired is always derived from the final Quantity.
type PositionSizing struct {
	Quantity         int     `json:"quantity"`
	MarginRequired   float64 `json:"margin_required"`
	TradeValue       float64 `json:"trade_value"`
	RiskPercentage   float64 `json:"risk_percentage"`
	LeverageUsed     float64 `json:"leverage_used"`
	StopLossDistance float64 `json:"stop_loss_distance"`
	ScaledATR        float64 `json:"scaled_atr"`
}

type RiskLevel string

const (
	RiskMinimal RiskLevel = "MINIMAL"
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
)

type RiskRecommendation string

const (
	RiskProceed        RiskRecommendation = "PROCEED"
	RiskProceedCaution RiskRecommendation = "PROCEED_CAUTION"
	RiskReduceSize     RiskRecommendation = "REDUCE_SIZE"
	RiskReject         RiskRecommendation = "REJECT"
)

// RiskAssessment is the verdict of the risk manager for one proposed trade.
type RiskAssessment struct {
	RiskLevel         RiskLevel          `json:"risk_level"`
	RiskScore         int                `json:"risk_score"`
	RiskPercentage    float64            `json:"risk_percentage"`
	PositionValuePct  float64            `json:"position_value_pct"`
	Recommendation    RiskRecommendation `json:"recommendation"`
	Warnings          []string           `json:"warnings,omitempty"`
	SuggestedQuantity int                `json:"suggested_quantity"`
}

// RiskEvent records a significant risk occurrence within a session.
type RiskEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Details   string    `json:"details"`
	DailyPnL  float64   `json:"daily_pnl"`
	Drawdown  float64   `json:"drawdown"`
}

// Position is the single open position. Quantity is signed: long > 0,
// short < 0. Owned exclusively by the loop that opened it.
type Position struct {
	Symbol     string    `json:"symbol"`
	Quantity   int       `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Confidence float64   `json:"confidence"`
	Quality    float64   `json:"quality"`
	ATR        float64   `json:"atr"`
	MarginUsed float64   `json:"margin_used"`
}

// UnrealizedPnL marks the position to the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	qty := float64(p.Quantity)
	if qty >= 0 {
		return (price - p.EntryPrice) * qty
	}
	return (p.EntryPrice - price) * -qty
}

// Trade is an immutable closed-trade record.
type Trade struct {
	EntryTime       time.Time       `json:"entry_time"`
	ExitTime        time.Time       `json:"exit_time"`
	Direction       SignalDirection `json:"direction"`
	EntryPrice      float64         `json:"entry_price"`
	ExitPrice       float64         `json:"exit_price"`
	Quantity        int             `json:"quantity"`
	PnL             float64         `json:"pnl"`
	PnLPercent      float64         `json:"pnl_percent"`
	StopLoss        float64         `json:"stop_loss"`
	TakeProfit      float64         `json:"take_profit"`
	ExitReason      string          `json:"exit_reason"`
	Confidence      float64         `json:"confidence"`
	DurationMinutes int             `json:"duration_minutes"`
}

// EquityPoint is one sample of the simulated portfolio over time.
type EquityPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	PortfolioValue float64   `json:"portfolio_value"`
	Cash           float64   `json:"cash"`
	UnrealizedPnL  float64   `json:"unrealized_pnl"`
}

// InfFloat is a float64 that JSON-encodes positive/negative infinity as the
// strings "inf"/"-inf" (JSON has no infinity literal). Used for the profit
// factor sentinel.
type InfFloat float64

func (f InfFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 1) {
		return []byte(`"inf"`), nil
	}
	if math.IsInf(v, -1) {
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(v)
}

func (f *InfFloat) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"inf"`:
		*f = InfFloat(math.Inf(1))
		return nil
	case `"-inf"`:
		*f = InfFloat(math.Inf(-1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = InfFloat(v)
	return nil
}

// BacktestSummary aggregates the performance of one backtest run. A run with
// zero trades yields a fully zeroed summary rather than an error.
type BacktestSummary struct {
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	Profile              string    `json:"profile"`
	Symbol               string    `json:"symbol"`
	InitialCapital       float64   `json:"initial_capital"`
	FinalCapital         float64   `json:"final_capital"`
	TotalReturn          float64   `json:"total_return"`
	TotalReturnPercent   float64   `json:"total_return_percent"`
	MaxDrawdown          float64   `json:"max_drawdown"`
	MaxDrawdownPercent   float64   `json:"max_drawdown_percent"`
	TotalTrades          int       `json:"total_trades"`
	WinningTrades        int       `json:"winning_trades"`
	LosingTrades         int       `json:"losing_trades"`
	WinRate              float64   `json:"win_rate"`
	AvgWin               float64   `json:"avg_win"`
	AvgLoss              float64   `json:"avg_loss"`
	ProfitFactor         InfFloat  `json:"profit_factor"`
	SharpeRatio          float64   `json:"sharpe_ratio"`
	MaxConsecutiveWins   int       `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int       `json:"max_consecutive_losses"`
	AvgTradeDuration     float64   `json:"avg_trade_duration"`
}

// BacktestResult is the full persisted artifact of one run.
type BacktestResult struct {
	Summary     BacktestSummary `json:"summary"`
	Trades      []Trade         `json:"trades"`
	EquityCurve []EquityPoint   `json:"equity_curve"`
}

// Defined exit reasons for closed trades.
const (
	ExitStopLoss   = "Stop Loss"
	ExitTakeProfit = "Take Profit"
	ExitReversal   = "Signal Reversal"
	ExitMaxHold    = "Max Hold"
	ExitEndOfData  = "End of Data"
	ExitSquareOff  = "Square Off"
)

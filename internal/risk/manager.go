package risk

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

// Manager is the session-scoped risk gate. It owns all mutable risk state:
// daily P&L, the portfolio high-water mark, drawdown, trade counts and the
// circuit breaker. One Manager per trading session (live loop or backtest
// run); never shared across sessions. Within a session it is read by the
// HTTP and Telegram handlers while the live loop mutates it, so every
// method takes the mutex.
type Manager struct {
	mu      sync.Mutex
	profile config.Profile

	dailyPnL        float64
	peakValue       float64
	currentDrawdown float64
	tradeCountToday int

	tripped    bool
	tripReason string

	events []domain.RiskEvent
}

func NewManager(profile config.Profile, initialBalance float64) *Manager {
	return &Manager{
		profile:   profile,
		peakValue: initialBalance,
	}
}

// AssessTrade grades a proposed trade against the session's limits. Each
// violated rule adds fixed points; the total maps to a recommendation. The
// scoring is monotonic: failing an extra rule never lowers the score.
func (m *Manager) AssessTrade(entryPrice float64, quantity int, stopLoss, balance float64) domain.RiskAssessment {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.profile

	riskPerShare := math.Abs(entryPrice - stopLoss)
	totalRisk := riskPerShare * float64(quantity)
	riskPct := 0.0
	positionValuePct := 0.0
	if balance > 0 {
		riskPct = totalRisk / balance
		positionValuePct = entryPrice * float64(quantity) / balance
	}

	score := 0
	var warnings []string

	maxRisk := p.MaxRiskPerTradePct / 100
	if riskPct > maxRisk {
		score += 3
		warnings = append(warnings, fmt.Sprintf("risk %.1f%% exceeds per-trade limit %.1f%%", riskPct*100, maxRisk*100))
	}

	maxPosition := p.MaxPositionValuePct / 100
	if positionValuePct > maxPosition {
		score += 2
		warnings = append(warnings, fmt.Sprintf("position %.1f%% of capital exceeds limit %.1f%%", positionValuePct*100, maxPosition*100))
	}

	// Projected daily loss assumes the stop is hit on top of today's
	// realized losses.
	realizedLoss := math.Max(0, -m.dailyPnL)
	if balance > 0 && (realizedLoss+totalRisk)/balance > p.MaxDailyLossPct/100 {
		score += 3
		warnings = append(warnings, "trade could breach the daily loss limit")
	}

	if m.currentDrawdown > p.MaxDrawdownLimitPct/100*0.8 {
		score += 2
		warnings = append(warnings, fmt.Sprintf("drawdown %.1f%% approaching limit %.1f%%", m.currentDrawdown*100, p.MaxDrawdownLimitPct))
	}

	if m.tradeCountToday >= p.MaxTradesPerDay {
		score += 2
		warnings = append(warnings, fmt.Sprintf("daily trade limit reached: %d", m.tradeCountToday))
	}

	assessment := domain.RiskAssessment{
		RiskScore:         score,
		RiskPercentage:    riskPct,
		PositionValuePct:  positionValuePct,
		Warnings:          warnings,
		SuggestedQuantity: quantity,
	}

	switch {
	case score >= 5:
		assessment.RiskLevel = domain.RiskHigh
		assessment.Recommendation = domain.RiskReject
	case score >= 3:
		assessment.RiskLevel = domain.RiskMedium
		assessment.Recommendation = domain.RiskReduceSize
	case score >= 1:
		assessment.RiskLevel = domain.RiskLow
		assessment.Recommendation = domain.RiskProceedCaution
	default:
		assessment.RiskLevel = domain.RiskMinimal
		assessment.Recommendation = domain.RiskProceed
	}

	if assessment.Recommendation == domain.RiskReduceSize && riskPerShare > 0 {
		safe := int(balance * maxRisk / riskPerShare)
		half := quantity / 2
		if safe > half {
			safe = half
		}
		if safe < 1 {
			safe = 1
		}
		assessment.SuggestedQuantity = safe
	}

	if assessment.Recommendation == domain.RiskReject {
		m.recordEvent("trade_rejected", fmt.Sprintf("score %d: %v", score, warnings))
	}
	return assessment
}

// RecordTradeOpen counts an opened position against the daily trade limit.
func (m *Manager) RecordTradeOpen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tradeCountToday++
}

// RecordTradeResult folds a realized P&L into the daily total.
func (m *Manager) RecordTradeResult(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyPnL += pnl
	if pnl < 0 {
		log.Printf("risk: daily P&L now %.2f after %.2f loss", m.dailyPnL, pnl)
	}
}

// UpdatePortfolioValue advances the high-water mark and recomputes
// drawdown. Drawdown only shrinks when a new peak is made.
func (m *Manager) UpdatePortfolioValue(value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value > m.peakValue {
		m.peakValue = value
		m.currentDrawdown = 0
		return
	}
	if m.peakValue > 0 {
		m.currentDrawdown = (m.peakValue - value) / m.peakValue
	}
}

// ShouldStopTrading is the circuit breaker, checked once per cycle before
// signal generation. Once tripped it stays tripped until an explicit
// ResetDaily or Reset, even if conditions later recover.
func (m *Manager) ShouldStopTrading() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tripped {
		return true, m.tripReason
	}

	p := m.profile
	if m.dailyPnL <= -(p.MaxDailyLossPct / 100 * m.peakValue) {
		m.trip(fmt.Sprintf("daily loss limit breached: %.2f", -m.dailyPnL))
	} else if m.currentDrawdown > p.MaxDrawdownLimitPct/100 {
		m.trip(fmt.Sprintf("max drawdown breached: %.1f%%", m.currentDrawdown*100))
	} else if m.tradeCountToday >= p.MaxTradesPerDay {
		m.trip(fmt.Sprintf("daily trade limit reached: %d", m.tradeCountToday))
	}

	return m.tripped, m.tripReason
}

func (m *Manager) trip(reason string) {
	m.tripped = true
	m.tripReason = reason
	m.recordEvent("circuit_breaker", reason)
	log.Printf("risk: circuit breaker tripped: %s", reason)
}

// ResetDaily clears the per-day counters and the circuit breaker at the
// start of a trading day. Drawdown and the high-water mark persist.
func (m *Manager) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyPnL = 0
	m.tradeCountToday = 0
	m.tripped = false
	m.tripReason = ""
}

// Reset restores the whole session to its initial state.
func (m *Manager) Reset(initialBalance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyPnL = 0
	m.tradeCountToday = 0
	m.tripped = false
	m.tripReason = ""
	m.peakValue = initialBalance
	m.currentDrawdown = 0
	m.events = nil
}

// DailyPnL reports the session's realized P&L for the current day.
func (m *Manager) DailyPnL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyPnL
}

// Drawdown reports the current peak-to-value drawdown fraction.
func (m *Manager) Drawdown() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentDrawdown
}

// TradeCountToday reports positions opened today.
func (m *Manager) TradeCountToday() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tradeCountToday
}

// Events returns the risk event log for the session.
func (m *Manager) Events() []domain.RiskEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.RiskEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Manager) recordEvent(eventType, details string) {
	m.events = append(m.events, domain.RiskEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Details:   details,
		DailyPnL:  m.dailyPnL,
		Drawdown:  m.currentDrawdown,
	})
}

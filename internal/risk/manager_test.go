package risk

import (
	"sync"
	"testing"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

func testProfile(t *testing.T) config.Profile {
	t.Helper()
	p, err := config.LoadProfile("balanced")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	return p
}

func TestAssessTradeMinimal(t *testing.T) {
	m := NewManager(testProfile(t), 100000)
	// 10 shares at 280 with an 11.2 stop: 0.112% risk, tiny position.
	a := m.AssessTrade(280, 10, 268.8, 100000)
	if a.RiskLevel != domain.RiskMinimal || a.Recommendation != domain.RiskProceed {
		t.Fatalf("expected MINIMAL/PROCEED, got %s/%s", a.RiskLevel, a.Recommendation)
	}
	if a.RiskScore != 0 {
		t.Fatalf("expected score 0, got %d", a.RiskScore)
	}
	if a.SuggestedQuantity != 10 {
		t.Fatalf("proceed should keep the quantity, got %d", a.SuggestedQuantity)
	}
}

func TestAssessTradeRejectsOversizedRisk(t *testing.T) {
	m := NewManager(testProfile(t), 10000)
	// 200 shares at 280 with a wide stop: risk and position both breach,
	// projected loss breaches too.
	a := m.AssessTrade(280, 200, 250, 10000)
	if a.Recommendation != domain.RiskReject {
		t.Fatalf("expected REJECT, got %s (score %d)", a.Recommendation, a.RiskScore)
	}
	if a.RiskLevel != domain.RiskHigh {
		t.Fatalf("expected HIGH, got %s", a.RiskLevel)
	}
	if len(a.Warnings) == 0 {
		t.Fatal("reject should carry warnings")
	}
	if len(m.Events()) == 0 {
		t.Fatal("reject should log a risk event")
	}
}

func TestAssessTradeReduceSize(t *testing.T) {
	m := NewManager(testProfile(t), 100000)
	// 18 shares with a 130-point stop: 2.34% risk breaches the 2% limit
	// (3 points) while position value and daily-loss stay clean.
	a := m.AssessTrade(280, 18, 150, 100000)
	if a.Recommendation != domain.RiskReduceSize {
		t.Fatalf("expected REDUCE_SIZE, got %s (score %d, warnings %v)", a.Recommendation, a.RiskScore, a.Warnings)
	}
	if a.SuggestedQuantity < 1 || a.SuggestedQuantity > 9 {
		t.Fatalf("suggested quantity should be at most half, got %d", a.SuggestedQuantity)
	}
}

// Adding a violation can only raise the score.
func TestRiskScoreMonotonic(t *testing.T) {
	m := NewManager(testProfile(t), 100000)
	clean := m.AssessTrade(280, 10, 268.8, 100000)

	for i := 0; i < 5; i++ {
		m.RecordTradeOpen()
	}
	withCount := m.AssessTrade(280, 10, 268.8, 100000)
	if withCount.RiskScore < clean.RiskScore {
		t.Fatalf("score decreased after violation: %d -> %d", clean.RiskScore, withCount.RiskScore)
	}
	if withCount.RiskScore != clean.RiskScore+2 {
		t.Fatalf("trade-count rule should add 2 points, got %d -> %d", clean.RiskScore, withCount.RiskScore)
	}
}

func TestCircuitBreakerDailyLoss(t *testing.T) {
	p := testProfile(t)
	p.MaxDailyLossPct = 4
	m := NewManager(p, 10000)

	m.RecordTradeResult(-200)
	if stop, _ := m.ShouldStopTrading(); stop {
		t.Fatal("one 2% loss should not trip a 4% limit")
	}

	m.RecordTradeResult(-200)
	stop, reason := m.ShouldStopTrading()
	if !stop {
		t.Fatal("second 2% loss should trip the 4% limit exactly")
	}
	if reason == "" {
		t.Fatal("trip must carry a reason")
	}

	m.RecordTradeResult(-200)
	if stop, _ := m.ShouldStopTrading(); !stop {
		t.Fatal("breaker must stay tripped")
	}
}

func TestCircuitBreakerLatchesUntilReset(t *testing.T) {
	p := testProfile(t)
	p.MaxDailyLossPct = 4
	m := NewManager(p, 10000)

	m.RecordTradeResult(-500)
	if stop, _ := m.ShouldStopTrading(); !stop {
		t.Fatal("expected trip")
	}

	// A recovery does not untrip the breaker.
	m.RecordTradeResult(600)
	if stop, _ := m.ShouldStopTrading(); !stop {
		t.Fatal("breaker must latch through recovery")
	}

	m.ResetDaily()
	if stop, _ := m.ShouldStopTrading(); stop {
		t.Fatal("daily reset should clear the breaker")
	}
	if m.DailyPnL() != 0 || m.TradeCountToday() != 0 {
		t.Fatal("daily reset should zero daily counters")
	}
}

func TestCircuitBreakerTradeCount(t *testing.T) {
	p := testProfile(t)
	p.MaxTradesPerDay = 2
	m := NewManager(p, 10000)

	m.RecordTradeOpen()
	if stop, _ := m.ShouldStopTrading(); stop {
		t.Fatal("one trade should not exhaust a 2-trade limit")
	}
	m.RecordTradeOpen()
	if stop, _ := m.ShouldStopTrading(); !stop {
		t.Fatal("second trade should exhaust the limit")
	}
}

func TestDrawdownHighWaterMark(t *testing.T) {
	m := NewManager(testProfile(t), 10000)

	m.UpdatePortfolioValue(12000)
	if m.Drawdown() != 0 {
		t.Fatalf("new peak should zero drawdown, got %v", m.Drawdown())
	}

	m.UpdatePortfolioValue(10800)
	if got := m.Drawdown(); got < 0.099 || got > 0.101 {
		t.Fatalf("expected 10%% drawdown from peak, got %v", got)
	}

	// Partial recovery shrinks drawdown only relative to the same peak.
	m.UpdatePortfolioValue(11400)
	if got := m.Drawdown(); got < 0.049 || got > 0.051 {
		t.Fatalf("expected 5%% drawdown, got %v", got)
	}

	// Drawdown persists through a daily reset.
	m.ResetDaily()
	if m.Drawdown() == 0 {
		t.Fatal("daily reset must not clear drawdown")
	}
}

func TestDrawdownTripsBreaker(t *testing.T) {
	m := NewManager(testProfile(t), 10000)
	m.UpdatePortfolioValue(12000)
	m.UpdatePortfolioValue(10500)
	stop, reason := m.ShouldStopTrading()
	if !stop {
		t.Fatalf("12.5%% drawdown should trip a 10%% limit, got %v", m.Drawdown())
	}
	if reason == "" {
		t.Fatal("trip must carry a reason")
	}
}

func TestFullReset(t *testing.T) {
	m := NewManager(testProfile(t), 10000)
	m.UpdatePortfolioValue(12000)
	m.UpdatePortfolioValue(9000)
	m.RecordTradeResult(-3000)
	m.ShouldStopTrading()

	m.Reset(10000)
	if stop, _ := m.ShouldStopTrading(); stop {
		t.Fatal("full reset should clear the breaker")
	}
	if m.Drawdown() != 0 || m.DailyPnL() != 0 || len(m.Events()) != 0 {
		t.Fatal("full reset should restore initial state")
	}
}

func TestManagerConcurrentAccess(t *testing.T) {
	m := NewManager(testProfile(t), 100000)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			m.UpdatePortfolioValue(100000 - float64(i))
			m.RecordTradeResult(-1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			m.ShouldStopTrading()
			m.DailyPnL()
			m.Drawdown()
			m.Events()
		}
	}()
	wg.Wait()

	if m.DailyPnL() != -500 {
		t.Fatalf("daily pnl = %.2f, want -500", m.DailyPnL())
	}
}

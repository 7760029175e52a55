package job

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/risk"

	"go.opentelemetry.io/otel/trace"
)

var traderTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubMarket struct {
	refreshCalls int
	refreshErr   error
	quotes       map[string]float64
	quoteErr     error
}

func (m *stubMarket) RefreshBars(ctx context.Context, symbol, interval string, days int) (int, error) {
	m.refreshCalls++
	if m.refreshErr != nil {
		return 0, m.refreshErr
	}
	return 10, nil
}

func (m *stubMarket) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	price, ok := m.quotes[symbol]
	if !ok {
		return nil, errors.New("no quote for " + symbol)
	}
	return &domain.Quote{Symbol: symbol, Price: price}, nil
}

type stubSignals struct {
	result *domain.SignalResult
	err    error
	calls  int
}

func (s *stubSignals) Evaluate(ctx context.Context) (*domain.SignalResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubBroker struct {
	orders []string
	err    error
}

func (b *stubBroker) PlaceOrder(ctx context.Context, symbol, transactionType string, quantity int) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.orders = append(b.orders, transactionType)
	return "order-1", nil
}

type stubNotifier struct {
	msgs []string
}

func (n *stubNotifier) Notify(msg string) {
	n.msgs = append(n.msgs, msg)
}

func newTestTrader(t *testing.T, market *stubMarket, signals *stubSignals, broker *stubBroker, at time.Time) (*LiveTrader, *stubNotifier) {
	t.Helper()
	profile, err := config.LoadProfile("balanced")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	cfg := config.Config{
		PollSecs:       30,
		SignalSymbol:   "NIFTY_50",
		TradingSymbol:  "NIFTYBEES",
		BarInterval:    "30minute",
		HistoricalDays: 10,
		MarketOpen:     "09:15",
		MarketClose:    "15:30",
		SquareOffTime:  "15:20",
	}
	notifier := &stubNotifier{}
	trader := NewLiveTrader(traderTracer, cfg, profile, market, signals, broker,
		risk.NewManager(profile, 100000), notifier, 100000)
	trader.now = func() time.Time { return at }
	return trader, notifier
}

func sessionTime(hour, minute int) time.Time {
	loc := time.FixedZone("IST", 5*3600+30*60)
	return time.Date(2024, 1, 2, hour, minute, 0, 0, loc)
}

func TestRunCycleOutsideMarketHours(t *testing.T) {
	t.Parallel()

	market := &stubMarket{}
	signals := &stubSignals{}
	trader, _ := newTestTrader(t, market, signals, &stubBroker{}, sessionTime(8, 0))

	trader.runCycle(context.Background())

	if market.refreshCalls != 0 || signals.calls != 0 {
		t.Fatalf("expected no activity before open, got %d refreshes, %d evals",
			market.refreshCalls, signals.calls)
	}
}

func TestRunCycleHoldDoesNothing(t *testing.T) {
	t.Parallel()

	market := &stubMarket{quotes: map[string]float64{"NIFTYBEES": 280, "NIFTY_50": 22100}}
	signals := &stubSignals{result: &domain.SignalResult{Direction: domain.DirectionHold}}
	broker := &stubBroker{}
	trader, _ := newTestTrader(t, market, signals, broker, sessionTime(11, 0))

	trader.runCycle(context.Background())

	if market.refreshCalls != 1 {
		t.Fatalf("expected one bar refresh, got %d", market.refreshCalls)
	}
	if len(broker.orders) != 0 {
		t.Fatalf("expected no orders on HOLD, got %v", broker.orders)
	}
	if trader.Position() != nil {
		t.Fatalf("expected no position")
	}
}

func TestRunCycleOpensPositionOnBuy(t *testing.T) {
	t.Parallel()

	market := &stubMarket{quotes: map[string]float64{"NIFTYBEES": 280, "NIFTY_50": 22100}}
	signals := &stubSignals{result: &domain.SignalResult{
		Direction:  domain.DirectionBuy,
		Confidence: 0.8,
		Snapshot:   &domain.IndicatorSnapshot{ATR: 110},
	}}
	broker := &stubBroker{}
	trader, notifier := newTestTrader(t, market, signals, broker, sessionTime(11, 0))

	trader.runCycle(context.Background())

	pos := trader.Position()
	if pos == nil {
		t.Fatal("expected an open position")
	}
	if pos.Quantity <= 0 {
		t.Fatalf("expected long position, got qty %d", pos.Quantity)
	}
	if len(broker.orders) != 1 || broker.orders[0] != "BUY" {
		t.Fatalf("expected a single BUY order, got %v", broker.orders)
	}
	if pos.StopLoss >= pos.EntryPrice || pos.TakeProfit <= pos.EntryPrice {
		t.Fatalf("bad stop/target placement: entry %.2f stop %.2f target %.2f",
			pos.EntryPrice, pos.StopLoss, pos.TakeProfit)
	}
	if trader.Balance() >= 100000 {
		t.Fatalf("expected margin deducted, balance %.2f", trader.Balance())
	}
	if len(notifier.msgs) != 1 || !strings.Contains(notifier.msgs[0], "BUY") {
		t.Fatalf("expected BUY notification, got %v", notifier.msgs)
	}
}

func TestRunCycleRespectsCircuitBreaker(t *testing.T) {
	t.Parallel()

	market := &stubMarket{quotes: map[string]float64{"NIFTYBEES": 280, "NIFTY_50": 22100}}
	signals := &stubSignals{result: &domain.SignalResult{Direction: domain.DirectionBuy, Confidence: 0.9}}
	trader, _ := newTestTrader(t, market, signals, &stubBroker{}, sessionTime(11, 0))

	for i := 0; i < trader.profile.MaxTradesPerDay; i++ {
		trader.riskMgr.RecordTradeOpen()
	}

	trader.runCycle(context.Background())

	if signals.calls != 0 {
		t.Fatalf("expected no evaluation while halted, got %d", signals.calls)
	}
	if trader.Position() != nil {
		t.Fatalf("expected no position while halted")
	}
}

func TestManagePositionStopLoss(t *testing.T) {
	t.Parallel()

	market := &stubMarket{quotes: map[string]float64{"NIFTYBEES": 274, "NIFTY_50": 22000}}
	signals := &stubSignals{result: &domain.SignalResult{Direction: domain.DirectionHold}}
	broker := &stubBroker{}
	trader, notifier := newTestTrader(t, market, signals, broker, sessionTime(11, 0))

	trader.position = &domain.Position{
		Symbol:     "NIFTYBEES",
		Quantity:   100,
		EntryPrice: 280,
		StopLoss:   275,
		TakeProfit: 290,
		MarginUsed: 5600,
	}
	trader.balance = 94400

	trader.runCycle(context.Background())

	if trader.Position() != nil {
		t.Fatal("expected position closed at stop")
	}
	if len(broker.orders) != 1 || broker.orders[0] != "SELL" {
		t.Fatalf("expected a SELL exit order, got %v", broker.orders)
	}
	// margin back plus (274-280)*100 loss
	if got := trader.Balance(); got != 94400+5600-600 {
		t.Fatalf("unexpected balance after stop: %.2f", got)
	}
	if trader.riskMgr.DailyPnL() != -600 {
		t.Fatalf("expected -600 daily pnl, got %.2f", trader.riskMgr.DailyPnL())
	}
	if len(notifier.msgs) != 1 || !strings.Contains(notifier.msgs[0], domain.ExitStopLoss) {
		t.Fatalf("expected stop loss notification, got %v", notifier.msgs)
	}
}

func TestManagePositionReversalExit(t *testing.T) {
	t.Parallel()

	market := &stubMarket{quotes: map[string]float64{"NIFTYBEES": 282, "NIFTY_50": 22100}}
	signals := &stubSignals{result: &domain.SignalResult{Direction: domain.DirectionSell, Confidence: 0.7}}
	broker := &stubBroker{}
	trader, notifier := newTestTrader(t, market, signals, broker, sessionTime(11, 0))

	trader.position = &domain.Position{
		Symbol:     "NIFTYBEES",
		Quantity:   100,
		EntryPrice: 280,
		StopLoss:   275,
		TakeProfit: 290,
		MarginUsed: 5600,
	}
	trader.balance = 94400

	trader.runCycle(context.Background())

	if trader.Position() != nil {
		t.Fatal("expected position closed on reversal")
	}
	if len(notifier.msgs) != 1 || !strings.Contains(notifier.msgs[0], domain.ExitReversal) {
		t.Fatalf("expected reversal notification, got %v", notifier.msgs)
	}
}

func TestRunCycleSquareOff(t *testing.T) {
	t.Parallel()

	market := &stubMarket{quotes: map[string]float64{"NIFTYBEES": 283, "NIFTY_50": 22100}}
	signals := &stubSignals{result: &domain.SignalResult{Direction: domain.DirectionHold}}
	broker := &stubBroker{}
	trader, notifier := newTestTrader(t, market, signals, broker, sessionTime(15, 25))

	trader.position = &domain.Position{
		Symbol:     "NIFTYBEES",
		Quantity:   100,
		EntryPrice: 280,
		StopLoss:   275,
		TakeProfit: 290,
		MarginUsed: 5600,
	}
	trader.balance = 94400

	trader.runCycle(context.Background())

	if trader.Position() != nil {
		t.Fatal("expected position squared off")
	}
	if market.refreshCalls != 0 {
		t.Fatalf("expected no bar refresh during square off, got %d", market.refreshCalls)
	}
	if len(notifier.msgs) != 1 || !strings.Contains(notifier.msgs[0], domain.ExitSquareOff) {
		t.Fatalf("expected square off notification, got %v", notifier.msgs)
	}
}

func TestRunCycleRetriesOnRefreshError(t *testing.T) {
	t.Parallel()

	market := &stubMarket{refreshErr: errors.New("kite down")}
	signals := &stubSignals{result: &domain.SignalResult{Direction: domain.DirectionBuy, Confidence: 0.9}}
	trader, _ := newTestTrader(t, market, signals, &stubBroker{}, sessionTime(11, 0))

	trader.runCycle(context.Background())

	if signals.calls != 0 {
		t.Fatalf("expected no evaluation after refresh failure, got %d", signals.calls)
	}

	market.refreshErr = nil
	signals.result = &domain.SignalResult{Direction: domain.DirectionHold}
	trader.runCycle(context.Background())

	if signals.calls != 1 {
		t.Fatalf("expected evaluation on next cycle, got %d", signals.calls)
	}
}

func TestRolloverDayResetsRisk(t *testing.T) {
	t.Parallel()

	market := &stubMarket{quotes: map[string]float64{"NIFTYBEES": 280, "NIFTY_50": 22100}}
	signals := &stubSignals{result: &domain.SignalResult{Direction: domain.DirectionHold}}
	trader, _ := newTestTrader(t, market, signals, &stubBroker{}, sessionTime(11, 0))

	trader.runCycle(context.Background())
	trader.riskMgr.RecordTradeResult(-500)

	loc := time.FixedZone("IST", 5*3600+30*60)
	trader.now = func() time.Time { return time.Date(2024, 1, 3, 11, 0, 0, 0, loc) }
	trader.runCycle(context.Background())

	if trader.riskMgr.DailyPnL() != 0 {
		t.Fatalf("expected daily pnl reset on day change, got %.2f", trader.riskMgr.DailyPnL())
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	if got := parseClock("09:15", 0); got != 9*60+15 {
		t.Fatalf("expected 555, got %d", got)
	}
	if got := parseClock("15:30", 0); got != 15*60+30 {
		t.Fatalf("expected 930, got %d", got)
	}
	for _, bad := range []string{"", "nonsense", "25:00", "09:75", "9"} {
		if got := parseClock(bad, 123); got != 123 {
			t.Fatalf("expected fallback for %q, got %d", bad, got)
		}
	}
}

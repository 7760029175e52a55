package signal

import (
	"reflect"
	"strings"
	"testing"
	"time"

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

func barsFromCloses(closes []float64, span, volume float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	start := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol:    "NIFTY_50",
			Interval:  "30minute",
			Timestamp: start.Add(time.Duration(i) * 30 * time.Minute),
			Open:      c,
			High:      c + span,
			Low:       c - span,
			Close:     c,
			Volume:    volume,
		}
	}
	return bars
}

func risingBars(n int) []domain.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	return barsFromCloses(closes, 1, 100000)
}

func TestEvaluateInsufficientData(t *testing.T) {
	e := NewEngine(testProfile(t))
	res := e.Evaluate(risingBars(10))
	if res.Direction != domain.DirectionHold {
		t.Fatalf("expected HOLD, got %s", res.Direction)
	}
	if res.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", res.Confidence)
	}
	if !strings.Contains(res.Reason, "insufficient data") {
		t.Fatalf("expected insufficient data reason, got %q", res.Reason)
	}
}

func TestEvaluateSteadyUptrendBuys(t *testing.T) {
	e := NewEngine(testProfile(t))
	res := e.Evaluate(risingBars(100))
	if res.Direction != domain.DirectionBuy {
		t.Fatalf("expected BUY in a steady uptrend, got %s (%s)", res.Direction, res.Reason)
	}
	if res.Confidence <= 0 || res.Confidence > 0.95 {
		t.Fatalf("confidence out of range: %v", res.Confidence)
	}
	if res.BuyScore <= res.SellScore {
		t.Fatalf("buy score should lead: buy=%v sell=%v", res.BuyScore, res.SellScore)
	}
	if len(res.Confirmations) == 0 {
		t.Fatal("winning signal should carry confirmations")
	}
	if res.Snapshot == nil || res.Snapshot.SuperTrendDir != 1 {
		t.Fatalf("expected bullish supertrend snapshot, got %+v", res.Snapshot)
	}
}

func TestEvaluateRegimeSkipForcesHold(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 106
		}
	}
	closes[99] = 103
	e := NewEngine(testProfile(t))
	res := e.Evaluate(barsFromCloses(closes, 1, 100000))
	if res.Direction != domain.DirectionHold {
		t.Fatalf("regime skip must force HOLD, got %s", res.Direction)
	}
	if res.Regime == nil || !res.Regime.SkipTrading {
		t.Fatalf("expected skip regime info, got %+v", res.Regime)
	}
	if !strings.Contains(res.Reason, "regime skip") {
		t.Fatalf("expected regime skip reason, got %q", res.Reason)
	}
}

// Evaluate must be pure: identical windows yield identical results.
func TestEvaluateDeterministic(t *testing.T) {
	e := NewEngine(testProfile(t))
	bars := risingBars(100)
	first := e.Evaluate(bars)
	second := e.Evaluate(bars)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("evaluate is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestSnapshotFields(t *testing.T) {
	e := NewEngine(testProfile(t))
	bars := risingBars(100)
	snap, err := e.Snapshot(bars)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.SuperTrendDir != 1 && snap.SuperTrendDir != -1 {
		t.Fatalf("direction must be +1 or -1, got %d", snap.SuperTrendDir)
	}
	if snap.RSI < 0 || snap.RSI > 100 {
		t.Fatalf("rsi out of bounds: %v", snap.RSI)
	}
	if snap.ATR <= 0 {
		t.Fatalf("expected positive ATR, got %v", snap.ATR)
	}
	last := bars[len(bars)-1]
	if snap.RecentHigh >= last.Close+1.5 || snap.RecentHigh < last.Close-3 {
		t.Fatalf("recent high should track prior bars, got %v vs close %v", snap.RecentHigh, last.Close)
	}

	if _, err := e.Snapshot(bars[:5]); err == nil {
		t.Fatal("expected error for short window")
	}
}

func TestVolumeCreditsLeadingSideOnly(t *testing.T) {
	p := testProfile(t)
	e := NewEngine(p)

	// Volume spike on the last bar of an uptrend.
	bars := risingBars(100)
	bars[len(bars)-1].Volume = 300000
	res := e.Evaluate(bars)
	if res.Direction != domain.DirectionBuy {
		t.Fatalf("expected BUY, got %s (%s)", res.Direction, res.Reason)
	}
	found := false
	for _, tag := range res.Confirmations {
		if tag == "volume_surge" {
			found = true
		}
	}
	if !found {
		t.Fatalf("volume surge should confirm the leading side, tags=%v", res.Confirmations)
	}
	for _, tag := range res.Confirmations {
		if tag == "supertrend_bearish" || tag == "macd_bearish" {
			t.Fatalf("sell-side tag leaked into buy confirmations: %v", res.Confirmations)
		}
	}
}

func TestQualityAdjustsThreshold(t *testing.T) {
	p := testProfile(t)
	e := NewEngine(p)
	snap := &domain.IndicatorSnapshot{
		RSI:         50,
		VolumeRatio: 0.5,
		SuperTrend:  100,
		MACDHist:    -0.1,
	}
	low := e.quality(snap, 100, true, 1)
	if low >= 0.4 {
		t.Fatalf("weak evidence should score low quality, got %v", low)
	}

	strong := &domain.IndicatorSnapshot{
		RSI:         22,
		VolumeRatio: 3.0,
		SuperTrend:  110,
		MACDHist:    0.5,
	}
	high := e.quality(strong, 100, true, 4)
	if high <= 0.7 {
		t.Fatalf("strong evidence should score high quality, got %v", high)
	}
}

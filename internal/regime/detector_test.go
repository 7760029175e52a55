package regime

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

func makeBars(closes []float64, span float64) []domain.Bar {
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
			Volume:    100000,
		}
	}
	return bars
}

func testProfile(t *testing.T) config.Profile {
	t.Helper()
	p, err := config.LoadProfile("balanced")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	return p
}

func TestClassifyInsufficientHistory(t *testing.T) {
	d := NewDetector(testProfile(t))
	info := d.Classify(makeBars([]float64{100, 101, 102}, 1))
	if info.SkipTrading {
		t.Fatal("short history should not force a skip")
	}
}

func TestClassifyCalmTrendTradable(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	d := NewDetector(testProfile(t))
	info := d.Classify(makeBars(closes, 0.3))
	if info.SkipTrading {
		t.Fatalf("calm uptrend should be tradable, got skip: %s", info.Reason)
	}
	if info.TrendStrength < 0.75 {
		t.Fatalf("steady uptrend should sit near the top of its range, got %v", info.TrendStrength)
	}
}

func TestClassifySkipsChoppyHighVol(t *testing.T) {
	// Violent alternation: huge volatility, price pinned mid-range.
	closes := make([]float64, 60)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 106
		}
	}
	// Park the last close mid-range so the trend reads as weak.
	closes[59] = 103
	d := NewDetector(testProfile(t))
	info := d.Classify(makeBars(closes, 1))
	if !info.SkipTrading {
		t.Fatalf("choppy high-vol regime should be skipped, vol=%v trend=%v", info.AnnualizedVol, info.TrendStrength)
	}
	if info.Reason == "" {
		t.Fatal("skip verdict must carry a reason")
	}
}

func TestAnnualizedVolScaling(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	if vol := annualizedVol(closes, 20); vol != 0 {
		t.Fatalf("flat series should have zero vol, got %v", vol)
	}

	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 101
		}
	}
	vol := annualizedVol(closes, 20)
	if vol <= 0 || math.IsNaN(vol) {
		t.Fatalf("alternating series should have positive vol, got %v", vol)
	}
}

func TestRangePositionCollapsedRange(t *testing.T) {
	highs := []float64{100, 100, 100}
	lows := []float64{100, 100, 100}
	closes := []float64{100, 100, 100}
	if got := rangePosition(highs, lows, closes, 3); got != 0.5 {
		t.Fatalf("collapsed range should return 0.5, got %v", got)
	}
}

func TestMomentumMagnitude(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 102}
	got := momentumMagnitude(closes, 5)
	if math.Abs(got-0.02) > 1e-9 {
		t.Fatalf("expected momentum 0.02, got %v", got)
	}
	if momentumMagnitude(closes[:3], 5) != 0 {
		t.Fatal("short series should yield zero momentum")
	}
}

func TestClassifySkipsRangeBlowout(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	bars := makeBars(closes, 0.3)
	// Bar ranges explode on the final stretch while closes stay orderly,
	// so only the ATR-versus-median check can flag it.
	for i := 50; i < 60; i++ {
		bars[i].High = bars[i].Close + 6
		bars[i].Low = bars[i].Close - 6
	}
	d := NewDetector(testProfile(t))
	info := d.Classify(bars)
	if !info.SkipTrading {
		t.Fatalf("range blowout should skip trading, reason: %q", info.Reason)
	}
	if !strings.Contains(info.Reason, "volatility spike") {
		t.Fatalf("expected volatility spike reason, got %q", info.Reason)
	}
}

func TestATRSpikeNeedsHistory(t *testing.T) {
	p := testProfile(t)
	closes := make([]float64, p.RegimeATRPeriod+2)
	for i := range closes {
		closes[i] = 100
	}
	bars := makeBars(closes, 0.5)
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	spike, _, _ := atrSpike(highs, lows, closes, p)
	if spike {
		t.Fatal("short ATR history should not report a spike")
	}
}

package regime

import (
	"fmt"
	"math"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/ta"
)

// Detector classifies volatility, trend strength and momentum over recent
// bars and decides whether trading should be skipped entirely. It runs
// before scoring; a skip verdict forces HOLD regardless of indicator state.
type Detector struct {
	profile config.Profile
}

func NewDetector(profile config.Profile) *Detector {
	return &Detector{profile: profile}
}

// Classify inspects the trailing bars. It is pure: same bars, same verdict.
func (d *Detector) Classify(bars []domain.Bar) domain.RegimeInfo {
	p := d.profile
	need := p.RegimeVolWindow + 1
	if p.RegimeTrendWindow+1 > need {
		need = p.RegimeTrendWindow + 1
	}
	if len(bars) < need {
		return domain.RegimeInfo{SkipTrading: false, Reason: "insufficient history for regime classification"}
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}
	vol := annualizedVol(closes, p.RegimeVolWindow)
	trendStrength := rangePosition(highs, lows, closes, p.RegimeTrendWindow)
	momentum := momentumMagnitude(closes, p.RegimeMomentumWindow)

	info := domain.RegimeInfo{
		AnnualizedVol: vol,
		TrendStrength: trendStrength,
		Momentum:      momentum,
	}

	highVol := vol > p.HighVolThreshold
	// Strong trend means price sits in the outer quartiles of its range.
	weakTrend := trendStrength > 0.25 && trendStrength < 0.75
	lowMomentum := momentum < p.LowMomentumThreshold

	switch {
	case highVol && weakTrend:
		info.SkipTrading = true
		info.Reason = fmt.Sprintf("high volatility (%.1f%%) without trend", vol*100)
	case highVol && lowMomentum:
		info.SkipTrading = true
		info.Reason = fmt.Sprintf("high volatility (%.1f%%) with stalled momentum", vol*100)
	default:
		if spike, current, median := atrSpike(highs, lows, closes, p); spike {
			info.SkipTrading = true
			info.Reason = fmt.Sprintf("volatility spike: ATR %.2f vs median %.2f", current, median)
		} else {
			info.Reason = "tradable regime"
		}
	}

	return info
}

// annualizedVol is the stdev of simple returns over the window, scaled by
// sqrt(252) trading days.
func annualizedVol(closes []float64, window int) float64 {
	if len(closes) < window+1 {
		return 0
	}
	returns := windowReturns(closes, window, len(closes)-1)
	_, std := ta.MeanStd(returns)
	return std * math.Sqrt(252)
}

// rangePosition locates the last close inside its trailing high-low range:
// 0 at the low, 1 at the high, 0.5 when the range collapses.
func rangePosition(highs, lows, closes []float64, window int) float64 {
	n := len(closes)
	if n < window {
		return 0.5
	}
	hi := highs[n-window]
	lo := lows[n-window]
	for i := n - window + 1; i < n; i++ {
		if highs[i] > hi {
			hi = highs[i]
		}
		if lows[i] < lo {
			lo = lows[i]
		}
	}
	if hi == lo {
		return 0.5
	}
	return (closes[n-1] - lo) / (hi - lo)
}

func momentumMagnitude(closes []float64, window int) float64 {
	n := len(closes)
	if n < window+1 || closes[n-window-1] == 0 {
		return 0
	}
	return math.Abs(closes[n-1]-closes[n-window-1]) / closes[n-window-1]
}

// atrSpike compares the latest ATR, computed over the regime ATR window,
// against the median ATR of the preceding history.
func atrSpike(highs, lows, closes []float64, p config.Profile) (bool, float64, float64) {
	atr := ta.ATRSeries(highs, lows, closes, p.RegimeATRPeriod)
	n := len(atr)
	if n == 0 || math.IsNaN(atr[n-1]) {
		return false, 0, 0
	}
	samples := make([]float64, 0, n-1)
	for i := 0; i < n-1; i++ {
		if !math.IsNaN(atr[i]) {
			samples = append(samples, atr[i])
		}
	}
	if len(samples) < 3 {
		return false, atr[n-1], 0
	}
	median := ta.Median(samples)
	if median <= 0 {
		return false, atr[n-1], median
	}
	return atr[n-1] > p.VolSpikeMultiple*median, atr[n-1], median
}

func windowReturns(closes []float64, window, end int) []float64 {
	start := end - window + 1
	if start < 1 {
		start = 1
	}
	if start > end {
		return nil
	}
	returns := make([]float64, 0, end-start+1)
	for i := start; i <= end; i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

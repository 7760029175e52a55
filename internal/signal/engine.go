package signal

import (
	"fmt"
	"math"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/regime"
	"github.com/prajal/Multi-strategy-trading/internal/ta"
)

// Weights are the per-indicator vote contributions. ScaleMax is the
// denominator confidence is computed against and sits above the attainable
// sum, so even a full-house signal does not pin confidence at the cap.
type Weights struct {
	SuperTrend float64
	RSIExtreme float64
	RSINear    float64
	MACD       float64
	Volume     float64
	Breakout   float64
	ScaleMax   float64
}

func DefaultWeights() Weights {
	return Weights{
		SuperTrend: 3,
		RSIExtreme: 2,
		RSINear:    1,
		MACD:       2,
		Volume:     2,
		Breakout:   1,
		ScaleMax:   12,
	}
}

// Engine turns a window of bars into a directional signal. It holds no
// mutable state: Evaluate is pure given (bars, profile, weights), which is
// what keeps the backtest and live decision paths identical.
type Engine struct {
	profile  config.Profile
	weights  Weights
	detector *regime.Detector
}

func NewEngine(profile config.Profile) *Engine {
	return &Engine{
		profile:  profile,
		weights:  DefaultWeights(),
		detector: regime.NewDetector(profile),
	}
}

// NewEngineWithWeights overrides the default vote weights.
func NewEngineWithWeights(profile config.Profile, w Weights) *Engine {
	e := NewEngine(profile)
	e.weights = w
	return e
}

// MinBars is the shortest window Evaluate accepts before returning HOLD.
func (e *Engine) MinBars() int {
	return e.profile.MinBars()
}

// Snapshot computes indicator values at the final bar of the window. It
// recomputes from trailing history every call; nothing is cached across
// invocations.
func (e *Engine) Snapshot(bars []domain.Bar) (*domain.IndicatorSnapshot, error) {
	if len(bars) < e.MinBars() {
		return nil, fmt.Errorf("need %d bars for indicators, have %d", e.MinBars(), len(bars))
	}
	p := e.profile

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}
	last := len(bars) - 1

	stLine, stDir := ta.SuperTrendSeries(highs, lows, closes, p.SuperTrendPeriod, p.SuperTrendFactor)
	rsi := ta.RSISeries(closes, p.RSIPeriod)
	macdLine, signalLine := ta.MACDSeries(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	atr := ta.ATRSeries(highs, lows, closes, p.ATRPeriod)
	volRatio := ta.VolumeRatioSeries(volumes, p.VolumePeriod)

	snap := &domain.IndicatorSnapshot{
		SuperTrend:    stLine[last],
		SuperTrendDir: stDir[last],
		RSI:           rsi[last],
		MACDLine:      macdLine[last],
		MACDSignal:    signalLine[last],
		MACDHist:      macdLine[last] - signalLine[last],
		ATR:           atr[last],
		VolumeRatio:   volRatio[last],
	}

	// Breakout reference excludes the current bar.
	prior := bars[last-p.BreakoutPeriod : last]
	snap.RecentHigh = prior[0].High
	snap.RecentLow = prior[0].Low
	for _, b := range prior[1:] {
		if b.High > snap.RecentHigh {
			snap.RecentHigh = b.High
		}
		if b.Low < snap.RecentLow {
			snap.RecentLow = b.Low
		}
	}
	return snap, nil
}

// Evaluate runs the regime gate, the indicator vote and the quality
// adjustment in that order. A skip verdict from the regime detector forces
// HOLD regardless of how the indicators line up.
func (e *Engine) Evaluate(bars []domain.Bar) domain.SignalResult {
	if len(bars) < e.MinBars() {
		return domain.SignalResult{
			Direction: domain.DirectionHold,
			Reason:    fmt.Sprintf("insufficient data: have %d bars, need %d", len(bars), e.MinBars()),
		}
	}

	reg := e.detector.Classify(bars)
	if reg.SkipTrading {
		return domain.SignalResult{
			Direction: domain.DirectionHold,
			Regime:    &reg,
			Reason:    "regime skip: " + reg.Reason,
		}
	}

	snap, err := e.Snapshot(bars)
	if err != nil {
		return domain.SignalResult{Direction: domain.DirectionHold, Regime: &reg, Reason: err.Error()}
	}

	p := e.profile
	w := e.weights
	close := bars[len(bars)-1].Close

	var buyScore, sellScore float64
	var buyTags, sellTags []string

	if snap.SuperTrendDir == 1 {
		buyScore += w.SuperTrend
		buyTags = append(buyTags, "supertrend_bullish")
	} else if snap.SuperTrendDir == -1 {
		sellScore += w.SuperTrend
		sellTags = append(sellTags, "supertrend_bearish")
	}

	const nearBand = 10
	switch {
	case snap.RSI <= p.RSIOversold:
		buyScore += w.RSIExtreme
		buyTags = append(buyTags, "rsi_oversold")
	case snap.RSI <= p.RSIOversold+nearBand:
		buyScore += w.RSINear
		buyTags = append(buyTags, "rsi_near_oversold")
	case snap.RSI >= p.RSIOverbought:
		sellScore += w.RSIExtreme
		sellTags = append(sellTags, "rsi_overbought")
	case snap.RSI >= p.RSIOverbought-nearBand:
		sellScore += w.RSINear
		sellTags = append(sellTags, "rsi_near_overbought")
	}

	if snap.MACDLine > snap.MACDSignal && snap.MACDHist > 0 {
		buyScore += w.MACD
		buyTags = append(buyTags, "macd_bullish")
	} else if snap.MACDLine < snap.MACDSignal && snap.MACDHist < 0 {
		sellScore += w.MACD
		sellTags = append(sellTags, "macd_bearish")
	}

	if close > snap.RecentHigh {
		buyScore += w.Breakout
		buyTags = append(buyTags, "breakout_up")
	} else if close < snap.RecentLow {
		sellScore += w.Breakout
		sellTags = append(sellTags, "breakout_down")
	}

	// Volume confirms the side already leading; it never starts a signal.
	if !math.IsNaN(snap.VolumeRatio) && snap.VolumeRatio >= p.VolumeThreshold {
		if buyScore > sellScore {
			buyScore += w.Volume
			buyTags = append(buyTags, "volume_surge")
		} else if sellScore > buyScore {
			sellScore += w.Volume
			sellTags = append(sellTags, "volume_surge")
		}
	}

	result := domain.SignalResult{
		Direction: domain.DirectionHold,
		BuyScore:  buyScore,
		SellScore: sellScore,
		Regime:    &reg,
		Snapshot:  snap,
	}

	leadTags := buyTags
	leadScore := buyScore
	bullish := true
	if sellScore > buyScore {
		leadTags = sellTags
		leadScore = sellScore
		bullish = false
	}
	quality := e.quality(snap, close, bullish, len(leadTags))
	result.QualityScore = quality

	effMin := float64(p.MinConfirmations)
	switch {
	case quality < 0.4:
		effMin++
	case quality > 0.7:
		effMin--
	}
	if effMin < 2 {
		effMin = 2
	}

	if leadScore < effMin || buyScore == sellScore {
		result.Reason = fmt.Sprintf("score below threshold: buy=%.1f sell=%.1f need=%.1f", buyScore, sellScore, effMin)
		return result
	}

	confidence := math.Min(0.95, leadScore/w.ScaleMax*(0.75+0.5*quality))
	if confidence < p.MinConfidence {
		result.Reason = fmt.Sprintf("confidence %.2f below minimum %.2f", confidence, p.MinConfidence)
		return result
	}

	if bullish {
		result.Direction = domain.DirectionBuy
	} else {
		result.Direction = domain.DirectionSell
	}
	result.Confidence = confidence
	result.Confirmations = leadTags
	result.Reason = fmt.Sprintf("%d confirmations, quality %.2f", len(leadTags), quality)
	return result
}

// quality grades how convincing the winning side's evidence is, in [0,1].
// It does not gate directly; it tightens or relaxes the confirmation
// threshold and modulates confidence.
func (e *Engine) quality(snap *domain.IndicatorSnapshot, close float64, bullish bool, confirmations int) float64 {
	p := e.profile

	rsiExtremity := math.Abs(snap.RSI-50) / 50
	if rsiExtremity > 1 {
		rsiExtremity = 1
	}

	volMagnitude := 0.0
	if !math.IsNaN(snap.VolumeRatio) {
		volMagnitude = snap.VolumeRatio / (2 * p.VolumeThreshold)
		if volMagnitude > 1 {
			volMagnitude = 1
		}
	}

	stDistance := 0.0
	if close > 0 && !math.IsNaN(snap.SuperTrend) {
		stDistance = math.Abs(close-snap.SuperTrend) / close / 0.03
		if stDistance > 1 {
			stDistance = 1
		}
	}

	macdAlign := 0.0
	if (bullish && snap.MACDHist > 0) || (!bullish && snap.MACDHist < 0) {
		macdAlign = 1
	}

	quality := (rsiExtremity + volMagnitude + stDistance + macdAlign) / 4
	if confirmations >= 4 {
		quality += 0.15
	}
	if quality > 1 {
		quality = 1
	}
	return quality
}

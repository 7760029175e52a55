package config

import "fmt"

// Profile is a complete, immutable set of strategy parameters. Named
// presets apply overrides on top of a shared baseline; there is no
// inheritance beyond that single merge.
type Profile struct {
	Name string

	SuperTrendPeriod int
	SuperTrendFactor float64

	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64

	MACDFast   int
	MACDSlow   int
	MACDSignal int

	// Two independent ATR windows: regime detection vs stop sizing.
	RegimeATRPeriod int
	ATRPeriod       int

	VolumePeriod    int
	VolumeThreshold float64

	BreakoutPeriod int

	RegimeVolWindow      int
	RegimeTrendWindow    int
	RegimeMomentumWindow int
	HighVolThreshold     float64
	LowMomentumThreshold float64
	VolSpikeMultiple     float64

	MinConfirmations int
	MinConfidence    float64

	BasePositionSize     float64
	ConfidenceMultiplier bool
	VolatilityAdjustment bool
	NormalATRPct         float64
	CapitalBuffer        float64

	StopLossATRMultiple  float64
	TakeProfitRiskRatio  float64
	MaxRiskPerTradePct   float64
	MaxDailyLossPct      float64
	MaxDrawdownLimitPct  float64
	MaxPositionValuePct  float64
	MaxTradesPerDay      int

	WarmupBars  int
	MinHoldBars int
	MaxHoldBars int
}

func baseline() Profile {
	return Profile{
		Name:             "balanced",
		SuperTrendPeriod: 10,
		SuperTrendFactor: 3.0,

		RSIPeriod:     14,
		RSIOversold:   30,
		RSIOverbought: 70,

		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,

		RegimeATRPeriod: 10,
		ATRPeriod:       14,

		VolumePeriod:    20,
		VolumeThreshold: 1.5,

		BreakoutPeriod: 3,

		RegimeVolWindow:      20,
		RegimeTrendWindow:    14,
		RegimeMomentumWindow: 5,
		HighVolThreshold:     0.25,
		LowMomentumThreshold: 0.001,
		VolSpikeMultiple:     2.5,

		MinConfirmations: 3,
		MinConfidence:    0.3,

		BasePositionSize:     0.8,
		ConfidenceMultiplier: true,
		VolatilityAdjustment: true,
		NormalATRPct:         0.02,
		CapitalBuffer:        0.9,

		StopLossATRMultiple: 2.0,
		TakeProfitRiskRatio: 2.0,
		MaxRiskPerTradePct:  2.0,
		MaxDailyLossPct:     5.0,
		MaxDrawdownLimitPct: 10.0,
		MaxPositionValuePct: 20.0,
		MaxTradesPerDay:     5,

		WarmupBars:  50,
		MinHoldBars: 0,
		MaxHoldBars: 8,
	}
}

// LoadProfile returns the named preset, or an error for unknown names.
func LoadProfile(name string) (Profile, error) {
	p := baseline()
	switch name {
	case "", "balanced":
	case "conservative":
		p.Name = "conservative"
		p.MinConfirmations = 4
		p.SuperTrendFactor = 3.5
		p.RSIOversold = 25
		p.RSIOverbought = 75
		p.VolumeThreshold = 2.0
		p.BasePositionSize = 0.6
		p.MaxRiskPerTradePct = 1.5
		p.MaxDailyLossPct = 3.0
		p.MaxTradesPerDay = 3
	case "aggressive":
		p.Name = "aggressive"
		p.MinConfirmations = 2
		p.SuperTrendFactor = 2.5
		p.RSIOversold = 35
		p.RSIOverbought = 65
		p.VolumeThreshold = 1.2
		p.BasePositionSize = 1.0
		p.MaxRiskPerTradePct = 3.0
		p.MaxDailyLossPct = 7.0
		p.MaxTradesPerDay = 8
	case "scalping":
		p.Name = "scalping"
		p.SuperTrendPeriod = 7
		p.SuperTrendFactor = 2.0
		p.RSIPeriod = 9
		p.MinConfirmations = 2
		p.VolumeThreshold = 1.8
		p.BasePositionSize = 0.5
		p.MaxRiskPerTradePct = 1.0
		p.MaxTradesPerDay = 15
		p.MaxHoldBars = 4
	default:
		return Profile{}, fmt.Errorf("unknown strategy profile %q", name)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return p, nil
}

// ProfileNames lists the available presets in a stable order.
func ProfileNames() []string {
	return []string{"conservative", "balanced", "aggressive", "scalping"}
}

func (p Profile) Validate() error {
	if p.SuperTrendPeriod < 1 || p.RSIPeriod < 1 || p.ATRPeriod < 1 || p.RegimeATRPeriod < 1 {
		return fmt.Errorf("indicator periods must be >= 1")
	}
	if p.SuperTrendFactor <= 0 {
		return fmt.Errorf("supertrend factor must be > 0, got %v", p.SuperTrendFactor)
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd fast period %d must be < slow period %d", p.MACDFast, p.MACDSlow)
	}
	if p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("rsi oversold %v must be < overbought %v", p.RSIOversold, p.RSIOverbought)
	}
	if p.MinConfirmations < 1 {
		return fmt.Errorf("min confirmations must be >= 1")
	}
	if p.BasePositionSize <= 0 || p.BasePositionSize > 1 {
		return fmt.Errorf("base position size must be in (0, 1], got %v", p.BasePositionSize)
	}
	if p.CapitalBuffer <= 0 || p.CapitalBuffer > 1 {
		return fmt.Errorf("capital buffer must be in (0, 1], got %v", p.CapitalBuffer)
	}
	if p.StopLossATRMultiple <= 0 {
		return fmt.Errorf("stop loss atr multiple must be > 0")
	}
	if p.MaxRiskPerTradePct <= 0 || p.MaxDailyLossPct <= 0 || p.MaxDrawdownLimitPct <= 0 {
		return fmt.Errorf("risk limits must be > 0")
	}
	if p.MaxTradesPerDay < 1 {
		return fmt.Errorf("max trades per day must be >= 1")
	}
	if p.WarmupBars < p.MACDSlow {
		return fmt.Errorf("warmup bars %d must cover the slowest lookback %d", p.WarmupBars, p.MACDSlow)
	}
	if p.MaxHoldBars < 1 {
		return fmt.Errorf("max hold bars must be >= 1")
	}
	return nil
}

// MinBars is the shortest history a signal evaluation needs.
func (p Profile) MinBars() int {
	min := p.MACDSlow + p.MACDSignal
	for _, n := range []int{p.SuperTrendPeriod + 1, p.RSIPeriod + 1, p.ATRPeriod + 1, p.VolumePeriod, p.RegimeVolWindow + 1} {
		if n > min {
			min = n
		}
	}
	return min
}

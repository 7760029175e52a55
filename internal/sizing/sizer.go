package sizing

import (
	"fmt"
	"math"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

// Sizer converts a signal plus account state into an order quantity under
// volatility and leverage constraints. Sizing is deliberately permissive at
// the low end: it never rounds a valid signal down to zero while a single
// share is affordable. The risk manager is the real gate against oversizing.
type Sizer struct {
	profile config.Profile
}

func NewSizer(profile config.Profile) *Sizer {
	return &Sizer{profile: profile}
}

// ScaleATR translates an ATR computed on the signal instrument into the
// traded instrument's terms: price ratio times a per-pair volatility ratio,
// clamped to [1%, 8%] of the traded price. A non-positive ATR falls back to
// 2% of price.
func (s *Sizer) ScaleATR(atr, signalPrice, tradedPrice float64, signalSymbol, tradedSymbol string) float64 {
	if tradedPrice <= 0 {
		return 0
	}
	if atr <= 0 || signalPrice <= 0 {
		return tradedPrice * 0.02
	}
	scaled := atr
	if signalSymbol != tradedSymbol {
		scaled = atr * (tradedPrice / signalPrice) * domain.VolatilityRatio(signalSymbol, tradedSymbol)
	}
	lo := tradedPrice * 0.01
	hi := tradedPrice * 0.08
	if scaled < lo {
		scaled = lo
	}
	if scaled > hi {
		scaled = hi
	}
	return scaled
}

// Size computes the position for one entry decision. atr is raw, in the
// signal instrument's terms; price is the traded instrument's price.
func (s *Sizer) Size(balance, price, atr, signalPrice, confidence float64, signalSymbol, tradedSymbol string) (domain.PositionSizing, error) {
	if balance <= 0 {
		return domain.PositionSizing{}, fmt.Errorf("balance must be positive, got %v", balance)
	}
	if price <= 0 {
		return domain.PositionSizing{}, fmt.Errorf("price must be positive, got %v", price)
	}
	p := s.profile

	scaledATR := s.ScaleATR(atr, signalPrice, price, signalSymbol, tradedSymbol)
	leverage := domain.MISLeverage(tradedSymbol)

	baseCapital := balance * p.BasePositionSize

	if p.ConfidenceMultiplier {
		baseCapital *= 0.5 + 0.5*clamp01(confidence)
	}

	if p.VolatilityAdjustment && scaledATR > 0 {
		normalATR := price * p.NormalATRPct
		factor := math.Min(1.0, normalATR/scaledATR)
		if factor < 0.3 {
			factor = 0.3
		}
		baseCapital *= factor
	}

	effectiveCapital := baseCapital * leverage
	capitalQty := int(effectiveCapital / price)

	stopDistance := scaledATR * p.StopLossATRMultiple
	riskQty := capitalQty
	if stopDistance > 0 {
		maxRiskAmount := balance * p.MaxRiskPerTradePct / 100
		riskQty = int(maxRiskAmount / stopDistance)
	}

	qty := capitalQty
	if riskQty < qty {
		qty = riskQty
	}

	// Minimum viable quantity: one share, as long as its margin fits
	// inside the capital buffer.
	if qty < 1 {
		if price/leverage <= balance*p.CapitalBuffer {
			qty = 1
		} else {
			qty = 0
		}
	}

	margin := float64(qty) * price / leverage
	if margin > balance*p.CapitalBuffer {
		qty = int(balance * p.CapitalBuffer / (price / leverage))
		margin = float64(qty) * price / leverage
	}

	sizing := domain.PositionSizing{
		Quantity:         qty,
		MarginRequired:   margin,
		TradeValue:       float64(qty) * price,
		LeverageUsed:     leverage,
		StopLossDistance: stopDistance,
		ScaledATR:        scaledATR,
	}
	if stopDistance > 0 {
		sizing.RiskPercentage = float64(qty) * stopDistance / balance * 100
	}
	return sizing, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

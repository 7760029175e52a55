package domain

// InstrumentToken maps internal symbols to broker instrument tokens.
var InstrumentToken = map[string]string{
	"NIFTY_50":   "256265",
	"NIFTYBEES":  "2707457",
	"JUNIORBEES": "2769665",
	"BANKBEES":   "273665",
	"LIQUIDBEES": "2963201",
}

// SignalToTrading maps a signal-source index to its tradable ETF proxy.
var SignalToTrading = map[string]string{
	"NIFTY_50": "NIFTYBEES",
}

// SupportedSymbols lists all tradable instruments.
var SupportedSymbols = []string{"NIFTYBEES", "JUNIORBEES", "BANKBEES", "LIQUIDBEES"}

// misLeverage holds intraday (MIS) margin multipliers per instrument.
var misLeverage = map[string]float64{
	"NIFTYBEES":  5.0,
	"JUNIORBEES": 5.0,
	"BANKBEES":   4.0,
	"LIQUIDBEES": 3.0,
	"RELIANCE":   4.0,
	"TCS":        4.0,
	"HDFCBANK":   4.0,
	"ICICIBANK":  4.0,
	"INFY":       4.0,
	"SBIN":       4.0,
	"BAJFINANCE": 3.5,
}

const defaultLeverage = 3.0

// MISLeverage returns the intraday leverage multiplier for a symbol,
// defaulting to 3x for anything not in the table.
func MISLeverage(symbol string) float64 {
	if lev, ok := misLeverage[symbol]; ok {
		return lev
	}
	return defaultLeverage
}

// volatilityRatio holds per-pair volatility ratios used when an ATR computed
// on a signal instrument is applied to a correlated traded instrument.
// Keyed as "SIGNAL/TRADED". Falls back to 1.0 when a pair is not calibrated.
var volatilityRatio = map[string]float64{
	"NIFTY_50/NIFTYBEES":  1.0,
	"NIFTY_50/JUNIORBEES": 1.15,
	"NIFTY_50/BANKBEES":   1.30,
}

// VolatilityRatio returns the relative volatility of traded vs signal
// instrument, default 1.0 for uncalibrated pairs.
func VolatilityRatio(signalSymbol, tradedSymbol string) float64 {
	if r, ok := volatilityRatio[signalSymbol+"/"+tradedSymbol]; ok {
		return r
	}
	return 1.0
}

package ta

import "math"

func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if period <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func RSISeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	series := nanSeries(len(closes))

	var gainSum float64
	var lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

func MACDSeries(values []float64, fast, slow, signal int) ([]float64, []float64) {
	if len(values) == 0 {
		return nil, nil
	}
	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)
	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := EMASeries(macdLine, signal)
	return macdLine, signalLine
}

// TrueRangeSeries computes max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close, so its TR is just high-low.
func TrueRangeSeries(highs, lows, closes []float64) []float64 {
	if len(highs) == 0 {
		return nil
	}
	tr := make([]float64, len(highs))
	tr[0] = highs[0] - lows[0]
	for i := 1; i < len(highs); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// ATRSeries is a simple rolling mean of true range, NaN until the window
// fills. Callers pick their own window; regime detection and stop sizing
// use different ones.
func ATRSeries(highs, lows, closes []float64, period int) []float64 {
	if len(highs) == 0 || period <= 0 {
		return nil
	}
	tr := TrueRangeSeries(highs, lows, closes)
	atr := nanSeries(len(tr))
	if len(tr) < period {
		return atr
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr[period-1] = sum / float64(period)
	for i := period; i < len(tr); i++ {
		sum += tr[i] - tr[i-period]
		atr[i] = sum / float64(period)
	}
	return atr
}

// SuperTrendSeries returns the trend line and direction (+1 up, -1 down)
// per bar. Bands are midpoint +/- factor*ATR carried forward with a sticky
// rule: the final upper band only moves down unless the previous close
// broke above it, the final lower band only moves up unless the previous
// close broke below it. The i-1 dependency is load-bearing; this must stay
// a forward fold.
func SuperTrendSeries(highs, lows, closes []float64, period int, factor float64) ([]float64, []int) {
	n := len(closes)
	line := nanSeries(n)
	dir := make([]int, n)
	if n == 0 || period <= 0 {
		return line, dir
	}
	atr := ATRSeries(highs, lows, closes, period)

	start := -1
	for i := range atr {
		if !math.IsNaN(atr[i]) {
			start = i
			break
		}
	}
	if start < 0 {
		return line, dir
	}

	mid := (highs[start] + lows[start]) / 2
	finalUpper := mid + factor*atr[start]
	finalLower := mid - factor*atr[start]
	trend := 1
	if closes[start] <= finalLower {
		trend = -1
	}
	dir[start] = trend
	if trend == 1 {
		line[start] = finalLower
	} else {
		line[start] = finalUpper
	}

	for i := start + 1; i < n; i++ {
		mid = (highs[i] + lows[i]) / 2
		basicUpper := mid + factor*atr[i]
		basicLower := mid - factor*atr[i]

		if basicUpper < finalUpper || closes[i-1] > finalUpper {
			finalUpper = basicUpper
		}
		if basicLower > finalLower || closes[i-1] < finalLower {
			finalLower = basicLower
		}

		if closes[i] <= finalLower {
			trend = -1
		} else if closes[i] >= finalUpper {
			trend = 1
		}

		dir[i] = trend
		if trend == 1 {
			line[i] = finalLower
		} else {
			line[i] = finalUpper
		}
	}
	return line, dir
}

// VolumeRatioSeries is current volume over its rolling mean. A zero mean
// (illiquid stretch) defaults the ratio to 1.0 rather than dividing by zero.
func VolumeRatioSeries(volumes []float64, period int) []float64 {
	if len(volumes) == 0 || period <= 0 {
		return nil
	}
	out := nanSeries(len(volumes))
	if len(volumes) < period {
		return out
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += volumes[i]
	}
	for i := period - 1; i < len(volumes); i++ {
		if i >= period {
			sum += volumes[i] - volumes[i-period]
		}
		mean := sum / float64(period)
		if mean == 0 {
			out[i] = 1.0
		} else {
			out[i] = volumes[i] / mean
		}
	}
	return out
}

func RollingMax(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		max := values[i-period+1]
		for _, v := range values[i-period+2 : i+1] {
			if v > max {
				max = v
			}
		}
		out[i] = max
	}
	return out
}

func RollingMin(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		min := values[i-period+1]
		for _, v := range values[i-period+2 : i+1] {
			if v < min {
				min = v
			}
		}
		out[i] = min
	}
	return out
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

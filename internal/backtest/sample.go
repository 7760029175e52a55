package backtest

import (
	"math"
	"math/rand"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

// GenerateSampleBars produces a synthetic intraday OHLCV series for demo
// and sweep runs. The generator is seeded, so the same seed always yields
// the same bars and therefore the same backtest output.
func GenerateSampleBars(symbol string, days int, seed int64) []domain.Bar {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)

	// 30-minute bars, 09:15 to 15:15, 13 per session.
	const barsPerDay = 13
	bars := make([]domain.Bar, 0, days*barsPerDay)

	price := 250.0
	trend := 0.0
	for d := 0; d < days; d++ {
		dayStart := start.AddDate(0, 0, d)
		// Skip weekends to keep timestamps realistic.
		for dayStart.Weekday() == time.Saturday || dayStart.Weekday() == time.Sunday {
			dayStart = dayStart.AddDate(0, 0, 1)
			start = start.AddDate(0, 0, 1)
		}
		// Occasionally shift the underlying drift.
		if rng.Float64() < 0.15 {
			trend = (rng.Float64() - 0.5) * 0.004
		}
		for b := 0; b < barsPerDay; b++ {
			ts := dayStart.Add(time.Duration(b) * 30 * time.Minute)
			ret := trend + rng.NormFloat64()*0.0025
			open := price
			close := price * (1 + ret)
			spread := price * (0.0005 + rng.Float64()*0.002)
			high := math.Max(open, close) + spread
			low := math.Min(open, close) - spread
			volume := 80000 + rng.Float64()*60000
			if math.Abs(ret) > 0.003 {
				volume *= 1.8
			}
			bars = append(bars, domain.Bar{
				Symbol:    symbol,
				Interval:  "30minute",
				Timestamp: ts,
				Open:      open,
				High:      high,
				Low:       low,
				Close:     close,
				Volume:    volume,
			})
			price = close
		}
	}
	return bars
}

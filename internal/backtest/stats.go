package backtest

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

// computeSummary derives run statistics from the trade list and equity
// curve. A zero-trade run returns a fully zeroed summary; the profit factor
// is +Inf with wins and no losses.
func computeSummary(start, end time.Time, initial, final float64, trades []domain.Trade, equity []domain.EquityPoint) domain.BacktestSummary {
	s := domain.BacktestSummary{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: initial,
		FinalCapital:   final,
	}
	if len(trades) == 0 {
		s.FinalCapital = final
		return s
	}

	s.TotalReturn = final - initial
	if initial > 0 {
		s.TotalReturnPercent = s.TotalReturn / initial * 100
	}
	s.TotalTrades = len(trades)

	var wins, losses []float64
	var winSum, lossSum float64
	durations := make([]float64, len(trades))
	returns := make([]float64, len(trades))
	for i, t := range trades {
		durations[i] = float64(t.DurationMinutes)
		returns[i] = t.PnLPercent
		if t.PnL > 0 {
			wins = append(wins, t.PnL)
			winSum += t.PnL
		} else {
			losses = append(losses, t.PnL)
			lossSum += t.PnL
		}
	}
	s.WinningTrades = len(wins)
	s.LosingTrades = len(losses)
	s.WinRate = float64(len(wins)) / float64(len(trades)) * 100
	if len(wins) > 0 {
		s.AvgWin = stat.Mean(wins, nil)
	}
	if len(losses) > 0 {
		s.AvgLoss = stat.Mean(losses, nil)
		s.ProfitFactor = domain.InfFloat(math.Abs(winSum / lossSum))
	} else {
		s.ProfitFactor = domain.InfFloat(math.Inf(1))
	}

	s.MaxDrawdown, s.MaxDrawdownPercent = maxDrawdown(equity)
	s.MaxConsecutiveWins, s.MaxConsecutiveLosses = streaks(trades)
	s.AvgTradeDuration = stat.Mean(durations, nil)

	if len(trades) > 1 {
		mean := stat.Mean(returns, nil)
		std := stat.StdDev(returns, nil)
		if std > 0 {
			s.SharpeRatio = mean / std
		}
	}
	return s
}

// maxDrawdown walks the equity curve tracking the peak-to-trough decline.
func maxDrawdown(equity []domain.EquityPoint) (absolute, percent float64) {
	if len(equity) == 0 {
		return 0, 0
	}
	peak := equity[0].PortfolioValue
	for _, p := range equity {
		if p.PortfolioValue > peak {
			peak = p.PortfolioValue
		}
		dd := peak - p.PortfolioValue
		if dd > absolute {
			absolute = dd
		}
	}
	if peak > 0 {
		percent = absolute / peak * 100
	}
	return absolute, percent
}

func streaks(trades []domain.Trade) (maxWins, maxLosses int) {
	var wins, losses int
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
			losses = 0
			if wins > maxWins {
				maxWins = wins
			}
		} else {
			losses++
			wins = 0
			if losses > maxLosses {
				maxLosses = losses
			}
		}
	}
	return maxWins, maxLosses
}

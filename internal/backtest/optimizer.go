package backtest

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

// SweepGrid spans the parameter combinations the optimizer explores.
type SweepGrid struct {
	SuperTrendFactors []float64
	MinConfirmations  []int
	RiskPerTradePcts  []float64
}

func DefaultSweepGrid() SweepGrid {
	return SweepGrid{
		SuperTrendFactors: []float64{2.0, 2.5, 3.0, 3.5},
		MinConfirmations:  []int{2, 3, 4},
		RiskPerTradePcts:  []float64{1.0, 1.5, 2.0, 3.0},
	}
}

// SweepResult is one evaluated combination.
type SweepResult struct {
	SuperTrendFactor float64                `json:"supertrend_factor"`
	MinConfirmations int                    `json:"min_confirmations"`
	RiskPerTradePct  float64                `json:"risk_per_trade_pct"`
	Score            float64                `json:"score"`
	Summary          domain.BacktestSummary `json:"summary"`
}

// Optimize runs a backtest per grid combination and ranks them by a
// composite score. Combinations run in parallel across workers; each worker
// builds its own engine so runs share nothing. Results are sorted
// descending by score, ties broken by parameters, so output order is
// deterministic regardless of scheduling.
func Optimize(ctx context.Context, base config.Profile, bars []domain.Bar, initialCapital float64, grid SweepGrid) ([]SweepResult, error) {
	type combo struct {
		factor float64
		conf   int
		risk   float64
	}
	var combos []combo
	for _, f := range grid.SuperTrendFactors {
		for _, c := range grid.MinConfirmations {
			for _, r := range grid.RiskPerTradePcts {
				combos = append(combos, combo{factor: f, conf: c, risk: r})
			}
		}
	}
	if len(combos) == 0 {
		return nil, fmt.Errorf("empty sweep grid")
	}

	results := make([]SweepResult, len(combos))
	errs := make([]error, len(combos))
	jobs := make(chan int)

	workers := runtime.GOMAXPROCS(0)
	if workers > len(combos) {
		workers = len(combos)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				c := combos[idx]
				profile := base
				profile.SuperTrendFactor = c.factor
				profile.MinConfirmations = c.conf
				profile.MaxRiskPerTradePct = c.risk

				run, err := NewEngine(profile, initialCapital).Run(bars)
				if err != nil {
					errs[idx] = fmt.Errorf("factor=%.1f conf=%d risk=%.1f: %w", c.factor, c.conf, c.risk, err)
					continue
				}
				results[idx] = SweepResult{
					SuperTrendFactor: c.factor,
					MinConfirmations: c.conf,
					RiskPerTradePct:  c.risk,
					Score:            sweepScore(run.Summary),
					Summary:          run.Summary,
				}
			}
		}()
	}

feed:
	for i := range combos {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].SuperTrendFactor != results[j].SuperTrendFactor {
			return results[i].SuperTrendFactor < results[j].SuperTrendFactor
		}
		if results[i].MinConfirmations != results[j].MinConfirmations {
			return results[i].MinConfirmations < results[j].MinConfirmations
		}
		return results[i].RiskPerTradePct < results[j].RiskPerTradePct
	})
	return results, nil
}

// sweepScore blends return, win rate, drawdown and profit factor into one
// ranking number. A combination that never trades is heavily penalized.
func sweepScore(s domain.BacktestSummary) float64 {
	if s.TotalTrades == 0 {
		return -1000
	}
	pf := float64(s.ProfitFactor)
	if math.IsInf(pf, 1) || pf > 10 {
		pf = 10
	}
	return s.TotalReturnPercent*0.4 +
		s.WinRate*0.3 +
		(100-s.MaxDrawdownPercent)*0.2 +
		pf*10*0.1
}

// ProfileComparison is one profile's result in a side-by-side run.
type ProfileComparison struct {
	Profile string                 `json:"profile"`
	Summary domain.BacktestSummary `json:"summary"`
}

// CompareProfiles backtests every named preset over the same bars.
func CompareProfiles(ctx context.Context, bars []domain.Bar, initialCapital float64) ([]ProfileComparison, error) {
	names := config.ProfileNames()
	out := make([]ProfileComparison, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		profile, err := config.LoadProfile(name)
		if err != nil {
			return nil, err
		}
		run, err := NewEngine(profile, initialCapital).Run(bars)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		out[i] = ProfileComparison{Profile: name, Summary: run.Summary}
	}
	return out, nil
}

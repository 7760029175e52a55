package advisor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

const reviewPhilosophy = `You are a quantitative trading analyst reviewing intraday index strategy backtests.

Rules:
- Base every observation on the numbers provided. Never fabricate data.
- Lead with the overall verdict: is this parameter set worth trading, iterating on, or discarding?
- Call out the dominant exit reason and what it says about stop and target placement.
- Flag fragile statistics: few trades, long losing streaks, drawdown close to the configured limit.
- Suggest at most three concrete parameter changes, each tied to an observed weakness.
- Keep the review under 250 words. No disclaimers.`

// FormatBacktestContext renders a run into the compact text block the LLM
// reviews.
func FormatBacktestContext(result *domain.BacktestResult) string {
	s := result.Summary
	var sb strings.Builder

	fmt.Fprintf(&sb, "Profile: %s  Symbol: %s\n", s.Profile, s.Symbol)
	fmt.Fprintf(&sb, "Period: %s to %s\n", s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Capital: %.2f -> %.2f (%+.2f%%)\n", s.InitialCapital, s.FinalCapital, s.TotalReturnPercent)
	fmt.Fprintf(&sb, "Max drawdown: %.2f%%\n", s.MaxDrawdownPercent)
	fmt.Fprintf(&sb, "Trades: %d (win rate %.1f%%, %d wins / %d losses)\n",
		s.TotalTrades, s.WinRate, s.WinningTrades, s.LosingTrades)
	fmt.Fprintf(&sb, "Avg win %.2f, avg loss %.2f, profit factor %s\n",
		s.AvgWin, s.AvgLoss, formatProfitFactor(float64(s.ProfitFactor)))
	fmt.Fprintf(&sb, "Sharpe: %.2f  Max win streak: %d  Max loss streak: %d\n",
		s.SharpeRatio, s.MaxConsecutiveWins, s.MaxConsecutiveLosses)
	fmt.Fprintf(&sb, "Avg trade duration: %.0f minutes\n", s.AvgTradeDuration)

	if len(result.Trades) > 0 {
		sb.WriteString("\nExits:\n")
		for _, line := range exitBreakdown(result.Trades) {
			sb.WriteString("  " + line + "\n")
		}
	}

	return sb.String()
}

// exitBreakdown counts trades and sums PnL per exit reason, ordered by count.
func exitBreakdown(trades []domain.Trade) []string {
	type bucket struct {
		reason string
		count  int
		pnl    float64
	}
	byReason := make(map[string]*bucket)
	for _, tr := range trades {
		b, ok := byReason[tr.ExitReason]
		if !ok {
			b = &bucket{reason: tr.ExitReason}
			byReason[tr.ExitReason] = b
		}
		b.count++
		b.pnl += tr.PnL
	}

	buckets := make([]*bucket, 0, len(byReason))
	for _, b := range byReason {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].reason < buckets[j].reason
	})

	lines := make([]string, 0, len(buckets))
	for _, b := range buckets {
		lines = append(lines, fmt.Sprintf("%s: %d trades, net %.2f", b.reason, b.count, b.pnl))
	}
	return lines
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}

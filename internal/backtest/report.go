package backtest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

// SaveResults writes the full result document (summary, trades, equity
// curve) as indented JSON. Infinite profit factors round-trip via the
// "inf" sentinel.
func SaveResults(result *domain.BacktestResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// LoadResults reads a result document written by SaveResults.
func LoadResults(path string) (*domain.BacktestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var result domain.BacktestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &result, nil
}

// TextReport renders a plain-text run report.
func TextReport(result *domain.BacktestResult) string {
	s := result.Summary
	var b strings.Builder

	section := func(title string) {
		fmt.Fprintf(&b, "\n%s\n%s\n", title, strings.Repeat("=", 25))
	}

	b.WriteString("BACKTEST REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")

	section("PERFORMANCE SUMMARY")
	fmt.Fprintf(&b, "Period: %s to %s\n", s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"))
	if s.Profile != "" {
		fmt.Fprintf(&b, "Profile: %s\n", s.Profile)
	}
	fmt.Fprintf(&b, "Initial Capital: %.2f\n", s.InitialCapital)
	fmt.Fprintf(&b, "Final Capital: %.2f\n", s.FinalCapital)
	fmt.Fprintf(&b, "Total Return: %.2f (%+.1f%%)\n", s.TotalReturn, s.TotalReturnPercent)
	fmt.Fprintf(&b, "Max Drawdown: %.2f (%.1f%%)\n", s.MaxDrawdown, s.MaxDrawdownPercent)

	section("TRADING STATISTICS")
	fmt.Fprintf(&b, "Total Trades: %d\n", s.TotalTrades)
	fmt.Fprintf(&b, "Winning Trades: %d (%.1f%%)\n", s.WinningTrades, s.WinRate)
	fmt.Fprintf(&b, "Losing Trades: %d\n", s.LosingTrades)
	fmt.Fprintf(&b, "Average Win: %.2f\n", s.AvgWin)
	fmt.Fprintf(&b, "Average Loss: %.2f\n", s.AvgLoss)
	if math.IsInf(float64(s.ProfitFactor), 1) {
		b.WriteString("Profit Factor: inf\n")
	} else {
		fmt.Fprintf(&b, "Profit Factor: %.2f\n", float64(s.ProfitFactor))
	}
	fmt.Fprintf(&b, "Sharpe Ratio: %.2f\n", s.SharpeRatio)

	section("STREAKS")
	fmt.Fprintf(&b, "Max Consecutive Wins: %d\n", s.MaxConsecutiveWins)
	fmt.Fprintf(&b, "Max Consecutive Losses: %d\n", s.MaxConsecutiveLosses)
	fmt.Fprintf(&b, "Average Trade Duration: %.0f minutes\n", s.AvgTradeDuration)

	if len(result.Trades) > 0 {
		section("TRADE BREAKDOWN")
		limit := len(result.Trades)
		if limit > 10 {
			limit = 10
		}
		for i, t := range result.Trades[:limit] {
			fmt.Fprintf(&b, "%2d. %s %.2f -> %.2f  P&L: %+.2f (%+.1f%%) [%s]\n",
				i+1, t.Direction, t.EntryPrice, t.ExitPrice, t.PnL, t.PnLPercent, t.ExitReason)
		}
	}
	return b.String()
}

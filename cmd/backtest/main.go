package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/prajal/Multi-strategy-trading/internal/advisor"
	"github.com/prajal/Multi-strategy-trading/internal/backtest"
	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/db"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/repository"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	gainStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	lossStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	dimStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))
)

func main() {
	godotenv.Load()

	var (
		profileName = flag.String("profile", "balanced", "strategy profile (conservative, balanced, aggressive, scalping)")
		symbol      = flag.String("symbol", "NIFTY_50", "signal instrument symbol")
		days        = flag.Int("days", 30, "number of trading days")
		seed        = flag.Int64("seed", 42, "sample data seed")
		capital     = flag.Float64("capital", 100000, "initial capital")
		source      = flag.String("source", "sample", "bar source: sample or db")
		interval    = flag.String("interval", "30minute", "bar interval for db source")
		savePath    = flag.String("save", "", "write full results to a JSON file")
		persist     = flag.Bool("persist", false, "save the run to Postgres")
		compare     = flag.Bool("compare", false, "compare all profiles on the same bars")
		optimize    = flag.Bool("optimize", false, "run the default parameter sweep")
		review      = flag.Bool("review", false, "ask the LLM advisor for a narrative review")
		verbose     = flag.Bool("verbose", false, "log every simulated trade")
	)
	flag.Parse()

	ctx := context.Background()
	tracer := trace.NewNoopTracerProvider().Tracer("backtest-cli")

	bars, err := loadBars(ctx, tracer, *source, *symbol, *interval, *days, *seed)
	if err != nil {
		log.Fatalf("load bars: %v", err)
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("Loaded %d bars for %s (%s)", len(bars), *symbol, *source)))

	if *compare {
		runCompare(ctx, bars, *capital)
		return
	}
	if *optimize {
		runOptimize(ctx, *profileName, bars, *capital)
		return
	}

	profile, err := config.LoadProfile(strings.ToLower(*profileName))
	if err != nil {
		log.Fatalf("load profile: %v", err)
	}

	engine := backtest.NewEngine(profile, *capital)
	engine.SetVerbose(*verbose)

	result, err := engine.Run(bars)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	fmt.Println(titleStyle.Render("Backtest: " + profile.Name))
	fmt.Println(renderSummary(result))
	fmt.Println(backtest.TextReport(result))

	if *savePath != "" {
		if err := backtest.SaveResults(result, *savePath); err != nil {
			log.Fatalf("save results: %v", err)
		}
		fmt.Println(dimStyle.Render("Results written to " + *savePath))
	}

	if *persist {
		db.InitPostgres(ctx)
		if db.Pool == nil {
			log.Fatal("persist requires DATABASE_URL")
		}
		repo := repository.NewBacktestRepository(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		id, err := repo.SaveRun(ctx, result)
		if err != nil {
			log.Fatalf("persist run: %v", err)
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("Run persisted with id %d", id)))
	}

	if *review {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			log.Fatal("review requires OPENAI_API_KEY")
		}
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = "gpt-4o-mini"
		}
		adv := advisor.NewAdvisor(tracer, advisor.NewOpenAIClient(apiKey), model)
		text, err := adv.ReviewBacktest(ctx, result)
		if err != nil {
			log.Fatalf("advisor review: %v", err)
		}
		fmt.Println(titleStyle.Render("Advisor review"))
		fmt.Println(text)
	}
}

func loadBars(ctx context.Context, tracer trace.Tracer, source, symbol, interval string, days int, seed int64) ([]domain.Bar, error) {
	switch source {
	case "sample":
		return backtest.GenerateSampleBars(symbol, days, seed), nil
	case "db":
		db.InitPostgres(ctx)
		if db.Pool == nil {
			return nil, fmt.Errorf("db source requires DATABASE_URL")
		}
		repo := repository.NewBarRepository(db.Pool, tracer)
		// ~13 bars per 30minute session
		return repo.GetRecentBars(ctx, symbol, interval, days*13)
	default:
		return nil, fmt.Errorf("unknown source %q, want sample or db", source)
	}
}

func runCompare(ctx context.Context, bars []domain.Bar, capital float64) {
	comparisons, err := backtest.CompareProfiles(ctx, bars, capital)
	if err != nil {
		log.Fatalf("compare profiles: %v", err)
	}
	fmt.Println(titleStyle.Render("Profile comparison"))
	fmt.Println(renderComparison(comparisons))
}

func runOptimize(ctx context.Context, profileName string, bars []domain.Bar, capital float64) {
	base, err := config.LoadProfile(strings.ToLower(profileName))
	if err != nil {
		log.Fatalf("load profile: %v", err)
	}
	results, err := backtest.Optimize(ctx, base, bars, capital, backtest.DefaultSweepGrid())
	if err != nil {
		log.Fatalf("optimize: %v", err)
	}
	fmt.Println(titleStyle.Render("Parameter sweep (base " + base.Name + ")"))
	fmt.Println(renderSweep(results, 10))
}

func renderSummary(result *domain.BacktestResult) string {
	s := result.Summary
	line := fmt.Sprintf("Return %+.2f%%  Trades %d  Win rate %.1f%%  Max DD %.2f%%",
		s.TotalReturnPercent, s.TotalTrades, s.WinRate, s.MaxDrawdownPercent)
	if s.TotalReturn >= 0 {
		return gainStyle.Render(line)
	}
	return lossStyle.Render(line)
}

func renderComparison(comparisons []backtest.ProfileComparison) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-14s %10s %8s %8s %10s\n", "PROFILE", "RETURN%", "TRADES", "WIN%", "MAX DD%")
	for _, c := range comparisons {
		s := c.Summary
		line := fmt.Sprintf("%-14s %10.2f %8d %8.1f %10.2f",
			c.Profile, s.TotalReturnPercent, s.TotalTrades, s.WinRate, s.MaxDrawdownPercent)
		if s.TotalReturn >= 0 {
			sb.WriteString(gainStyle.Render(line))
		} else {
			sb.WriteString(lossStyle.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderSweep(results []backtest.SweepResult, top int) string {
	if top > len(results) {
		top = len(results)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%4s %8s %6s %7s %10s %8s %8s\n", "RANK", "FACTOR", "CONF", "RISK%", "RETURN%", "TRADES", "SCORE")
	for i := 0; i < top; i++ {
		r := results[i]
		fmt.Fprintf(&sb, "%4d %8.2f %6d %7.2f %10.2f %8d %8.2f\n",
			i+1, r.SuperTrendFactor, r.MinConfirmations, r.RiskPerTradePct,
			r.Summary.TotalReturnPercent, r.Summary.TotalTrades, r.Score)
	}
	return sb.String()
}

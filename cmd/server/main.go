package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/bot"
	"github.com/prajal/Multi-strategy-trading/internal/cache"
	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/db"
	"github.com/prajal/Multi-strategy-trading/internal/handler"
	"github.com/prajal/Multi-strategy-trading/internal/job"
	"github.com/prajal/Multi-strategy-trading/internal/provider"
	"github.com/prajal/Multi-strategy-trading/internal/repository"
	"github.com/prajal/Multi-strategy-trading/internal/risk"
	"github.com/prajal/Multi-strategy-trading/internal/service"
	"github.com/prajal/Multi-strategy-trading/internal/signal"
	"github.com/prajal/Multi-strategy-trading/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "github.com/prajal/Multi-strategy-trading/docs"
)

// brokerProvider is what the Kite client provides to the rest of the wiring:
// market data for the services and order placement for the live trader.
type brokerProvider interface {
	service.BarProvider
	job.OrderPlacer
}

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	initPostgresFunc    = db.InitPostgres
	initRedisFunc       = cache.InitRedis
	initTracerFunc      = tracing.InitTracer
	newBarRepoFunc      = repository.NewBarRepository
	newBacktestRepoFunc = repository.NewBacktestRepository
	newKiteProviderFunc = func(cfg *config.Config, tracer trace.Tracer) brokerProvider {
		return provider.NewKiteProvider(cfg.KiteBaseURL, cfg.KiteAPIKey, cfg.KiteToken, tracer)
	}
	newMarketServiceFunc   = service.NewMarketDataService
	newSignalServiceFunc   = service.NewSignalService
	newLiveTraderFunc      = job.NewLiveTrader
	startTraderFunc        = func(t *job.LiveTrader, ctx context.Context) { go t.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Multi Strategy Trading API
// @version         1.0
// @description     Systematic index trading service with signal, risk, and backtest endpoints.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	profile, err := config.LoadProfile(cfg.ProfileName)
	if err != nil {
		log.Fatalf("failed to load strategy profile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repositories and run migrations
	barRepo := newBarRepoFunc(db.Pool, tracer)
	backtestRepo := newBacktestRepoFunc(db.Pool, tracer)
	if db.Pool != nil {
		if err := barRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run bar migrations: %v", err)
		}
		if err := backtestRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run backtest migrations: %v", err)
		}
	}

	// Market data and signal services on top of the Kite provider
	kite := newKiteProviderFunc(cfg, tracer)
	marketService := newMarketServiceFunc(tracer, kite, barRepo, cache.Client)
	engine := signal.NewEngine(profile)
	signalService := newSignalServiceFunc(tracer, engine, barRepo, cache.Client, cfg.SignalSymbol, cfg.BarInterval)

	riskMgr := risk.NewManager(profile, cfg.TradingCapital)

	// Start Telegram bot
	tgBot := startTelegramBotFunc(*cfg, signalService, marketService, riskMgr)

	// Start the live trading loop when broker credentials are present
	if cfg.KiteToken != "" {
		trader := newLiveTraderFunc(tracer, *cfg, profile, marketService, signalService,
			kite, riskMgr, tgBot, cfg.TradingCapital)
		startTraderFunc(trader, ctx)
	} else {
		log.Println("KITE_ACCESS_TOKEN not set, live trading loop disabled")
	}

	// Create handlers and routes
	var backtestStore handler.BacktestStore
	if db.Pool != nil {
		backtestStore = backtestRepo
	}
	h := newHandlerFunc(tracer, *cfg, signalService, marketService, riskMgr, backtestStore)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("multi-strategy-trading"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

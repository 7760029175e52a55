package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/job"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newKiteProviderFunc
	origStartTrader := startTraderFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			HTTPPort:       8080,
			PollSecs:       1,
			SignalSymbol:   "NIFTY_50",
			TradingSymbol:  "NIFTYBEES",
			BarInterval:    "30minute",
			HistoricalDays: 10,
			ProfileName:    "balanced",
			TradingCapital: 100000,
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newKiteProviderFunc = func(*config.Config, trace.Tracer) brokerProvider { return stubBroker{} }
	startTraderFunc = func(*job.LiveTrader, context.Context) {}
	startTelegramBotFunc = origStartTelegram
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newKiteProviderFunc = origNewProvider
		startTraderFunc = origStartTrader
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubBroker struct{}

func (stubBroker) FetchBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Bar, error) {
	return nil, nil
}

func (stubBroker) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	return nil, errors.New("no live quotes in tests")
}

func (stubBroker) PlaceOrder(ctx context.Context, symbol, transactionType string, quantity int) (string, error) {
	return "", errors.New("no live orders in tests")
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const quoteCacheTTL = 30 * time.Second

// BarProvider fetches market data from the broker API.
type BarProvider interface {
	FetchBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Bar, error)
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// BarStore persists bars and serves historical reads.
type BarStore interface {
	UpsertBars(ctx context.Context, bars []domain.Bar) error
	GetRecentBars(ctx context.Context, symbol, interval string, limit int) ([]domain.Bar, error)
	GetBarsInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Bar, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MarketDataService orchestrates bar fetching, persistence, and quote caching.
type MarketDataService struct {
	tracer   trace.Tracer
	provider BarProvider
	repo     BarStore
	redis    RedisClient
}

func NewMarketDataService(
	tracer trace.Tracer,
	provider BarProvider,
	repo BarStore,
	redisClient RedisClient,
) *MarketDataService {
	return &MarketDataService{
		tracer:   tracer,
		provider: provider,
		repo:     repo,
		redis:    redisClient,
	}
}

// GetQuote returns the latest traded price for a symbol.
// Falls back to a live API call if cache is empty/expired.
func (s *MarketDataService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "market-data.get-quote")
	defer span.End()

	if _, ok := domain.InstrumentToken[symbol]; !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	if s.redis != nil {
		cached, err := s.getQuoteCache(ctx, symbol)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	quote, err := s.provider.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.setQuoteCache(ctx, quote); err != nil {
			log.Printf("redis cache write error for %s: %v", symbol, err)
		}
	}
	return quote, nil
}

// RefreshBars fetches the last `days` of bars from the broker and upserts
// them into Postgres. Re-fetching overlapping ranges is safe.
func (s *MarketDataService) RefreshBars(ctx context.Context, symbol, interval string, days int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "market-data.refresh-bars")
	defer span.End()

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	bars, err := s.provider.FetchBars(ctx, symbol, interval, from, to)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}

	if err := s.repo.UpsertBars(ctx, bars); err != nil {
		return 0, fmt.Errorf("upsert bars for %s: %w", symbol, err)
	}

	log.Printf("Refreshed %d %s bars for %s", len(bars), interval, symbol)
	return len(bars), nil
}

// GetRecentBars returns the most recent bars for a symbol from Postgres,
// ordered oldest first.
func (s *MarketDataService) GetRecentBars(ctx context.Context, symbol, interval string, limit int) ([]domain.Bar, error) {
	return s.repo.GetRecentBars(ctx, symbol, interval, limit)
}

// GetBarsInRange returns bars between two timestamps, ordered oldest first.
func (s *MarketDataService) GetBarsInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Bar, error) {
	return s.repo.GetBarsInRange(ctx, symbol, interval, from, to)
}

func (s *MarketDataService) setQuoteCache(ctx context.Context, quote *domain.Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "quote:"+quote.Symbol, data, quoteCacheTTL).Err()
}

func (s *MarketDataService) getQuoteCache(ctx context.Context, symbol string) (*domain.Quote, error) {
	data, err := s.redis.Get(ctx, "quote:"+symbol).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var quote domain.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

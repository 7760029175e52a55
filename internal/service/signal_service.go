package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/signal"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const signalCacheTTL = 60 * time.Second

// extraBars gives the indicator stack headroom beyond its strict minimum so
// warmup NaNs never reach the decision bar.
const extraBars = 20

// BarReader serves stored bars, ordered oldest first.
type BarReader interface {
	GetRecentBars(ctx context.Context, symbol, interval string, limit int) ([]domain.Bar, error)
}

// SignalService evaluates the strategy on stored bars and caches the result.
type SignalService struct {
	tracer   trace.Tracer
	engine   *signal.Engine
	bars     BarReader
	redis    RedisClient
	symbol   string
	interval string
}

func NewSignalService(
	tracer trace.Tracer,
	engine *signal.Engine,
	bars BarReader,
	redisClient RedisClient,
	symbol, interval string,
) *SignalService {
	return &SignalService{
		tracer:   tracer,
		engine:   engine,
		bars:     bars,
		redis:    redisClient,
		symbol:   symbol,
		interval: interval,
	}
}

// Latest returns the most recent signal evaluation, served from cache when
// fresh. A cache miss triggers a new evaluation on stored bars.
func (s *SignalService) Latest(ctx context.Context) (*domain.SignalResult, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.latest")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getSignalCache(ctx)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}
	return s.Evaluate(ctx)
}

// Evaluate runs a fresh evaluation on the most recent stored bars and caches
// the result.
func (s *SignalService) Evaluate(ctx context.Context) (*domain.SignalResult, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.evaluate")
	defer span.End()

	bars, err := s.bars.GetRecentBars(ctx, s.symbol, s.interval, s.engine.MinBars()+extraBars)
	if err != nil {
		return nil, fmt.Errorf("load bars for %s: %w", s.symbol, err)
	}

	result := s.engine.Evaluate(bars)

	if s.redis != nil {
		if err := s.setSignalCache(ctx, &result); err != nil {
			log.Printf("redis cache write error for %s signal: %v", s.symbol, err)
		}
	}
	return &result, nil
}

func (s *SignalService) setSignalCache(ctx context.Context, result *domain.SignalResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "signal:latest:"+s.symbol, data, signalCacheTTL).Err()
}

func (s *SignalService) getSignalCache(ctx context.Context) (*domain.SignalResult, error) {
	data, err := s.redis.Get(ctx, "signal:latest:"+s.symbol).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result domain.SignalResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

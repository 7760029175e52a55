package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestMarketDataService_GetQuoteCacheHit(t *testing.T) {
	t.Parallel()

	redis := newFakeRedis()
	quote := &domain.Quote{Symbol: "NIFTYBEES", Price: 281.5}
	data, _ := json.Marshal(quote)
	_ = redis.Set(context.Background(), "quote:NIFTYBEES", data, 0)

	svc := NewMarketDataService(testTracer, &mockBarProvider{}, &mockBarStore{}, redis)

	got, err := svc.GetQuote(context.Background(), "NIFTYBEES")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Price != quote.Price {
		t.Fatalf("expected %.2f, got %.2f", quote.Price, got.Price)
	}
}

func TestMarketDataService_GetQuoteFetchesOnMiss(t *testing.T) {
	t.Parallel()

	provider := &mockBarProvider{
		quote: &domain.Quote{Symbol: "NIFTYBEES", Price: 280.1},
	}
	redis := newFakeRedis()
	svc := NewMarketDataService(testTracer, provider, &mockBarStore{}, redis)

	got, err := svc.GetQuote(context.Background(), "NIFTYBEES")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "NIFTYBEES" || got.Price != 280.1 {
		t.Fatalf("unexpected quote: %+v", got)
	}
	if provider.quoteCalls != 1 {
		t.Fatalf("expected FetchQuote to be called once, got %d", provider.quoteCalls)
	}
	if _, ok := redis.data["quote:NIFTYBEES"]; !ok {
		t.Fatalf("quote not cached")
	}
}

func TestMarketDataService_GetQuoteUnsupported(t *testing.T) {
	t.Parallel()

	svc := NewMarketDataService(testTracer, &mockBarProvider{}, &mockBarStore{}, nil)
	if _, err := svc.GetQuote(context.Background(), "FAKE"); err == nil {
		t.Fatal("expected error for unsupported symbol")
	}
}

func TestMarketDataService_RefreshBars(t *testing.T) {
	t.Parallel()

	bars := []domain.Bar{
		{Symbol: "NIFTY_50", Interval: "30minute", Timestamp: time.Now().Add(-time.Hour), Close: 22100},
		{Symbol: "NIFTY_50", Interval: "30minute", Timestamp: time.Now(), Close: 22150},
	}
	provider := &mockBarProvider{bars: bars}
	store := &mockBarStore{}
	svc := NewMarketDataService(testTracer, provider, store, nil)

	n, err := svc.RefreshBars(context.Background(), "NIFTY_50", "30minute", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 bars refreshed, got %d", n)
	}
	if provider.lastSymbol != "NIFTY_50" || provider.lastInterval != "30minute" {
		t.Fatalf("unexpected provider args: %s %s", provider.lastSymbol, provider.lastInterval)
	}
	if got := provider.lastTo.Sub(provider.lastFrom); got < 9*24*time.Hour || got > 11*24*time.Hour {
		t.Fatalf("expected ~10 day range, got %v", got)
	}
	if store.upsertCalls != 1 || len(store.upsertArg) != 2 {
		t.Fatalf("expected 1 upsert call with 2 bars, got %d calls", store.upsertCalls)
	}
}

func TestMarketDataService_RefreshBarsEmpty(t *testing.T) {
	t.Parallel()

	store := &mockBarStore{}
	svc := NewMarketDataService(testTracer, &mockBarProvider{}, store, nil)

	n, err := svc.RefreshBars(context.Background(), "NIFTY_50", "30minute", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 bars, got %d", n)
	}
	if store.upsertCalls != 0 {
		t.Fatalf("expected no upsert for empty fetch, got %d", store.upsertCalls)
	}
}

func TestMarketDataService_GetRecentBars(t *testing.T) {
	t.Parallel()

	store := &mockBarStore{
		recentResp: []domain.Bar{{Symbol: "NIFTY_50", Interval: "30minute"}},
	}
	svc := NewMarketDataService(testTracer, &mockBarProvider{}, store, nil)

	bars, err := svc.GetRecentBars(context.Background(), "NIFTY_50", "30minute", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastSymbol != "NIFTY_50" || store.lastInterval != "30minute" || store.lastLimit != 5 {
		t.Fatalf("unexpected store args: %s %s %d", store.lastSymbol, store.lastInterval, store.lastLimit)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
}

type mockBarProvider struct {
	bars     []domain.Bar
	quote    *domain.Quote
	barsErr  error
	quoteErr error

	barsCalls    int
	quoteCalls   int
	lastSymbol   string
	lastInterval string
	lastFrom     time.Time
	lastTo       time.Time
}

func (m *mockBarProvider) FetchBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Bar, error) {
	m.barsCalls++
	m.lastSymbol = symbol
	m.lastInterval = interval
	m.lastFrom = from
	m.lastTo = to
	if m.barsErr != nil {
		return nil, m.barsErr
	}
	return m.bars, nil
}

func (m *mockBarProvider) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	m.quoteCalls++
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	return m.quote, nil
}

type mockBarStore struct {
	recentResp []domain.Bar
	recentErr  error
	rangeResp  []domain.Bar

	lastSymbol   string
	lastInterval string
	lastLimit    int

	upsertArg   []domain.Bar
	upsertErr   error
	upsertCalls int
}

func (m *mockBarStore) GetRecentBars(ctx context.Context, symbol, interval string, limit int) ([]domain.Bar, error) {
	m.lastSymbol = symbol
	m.lastInterval = interval
	m.lastLimit = limit
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	return m.recentResp, nil
}

func (m *mockBarStore) GetBarsInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Bar, error) {
	return m.rangeResp, nil
}

func (m *mockBarStore) UpsertBars(ctx context.Context, bars []domain.Bar) error {
	m.upsertCalls++
	m.upsertArg = bars
	if m.upsertErr != nil {
		return m.upsertErr
	}
	return nil
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

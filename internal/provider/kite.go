package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

const kiteBaseURL = "https://api.kite.trade"

// KiteProvider fetches historical bars and quotes from the Zerodha Kite
// Connect API and places intraday orders.
type KiteProvider struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	accessToken string
	tracer      trace.Tracer
	limiter     *throttle
}

// NewKiteProvider creates a provider with built-in rate limiting. Kite
// allows 3 requests per second on the historical endpoints.
func NewKiteProvider(baseURL, apiKey, accessToken string, tracer trace.Tracer) *KiteProvider {
	if baseURL == "" {
		baseURL = kiteBaseURL
	}
	return &KiteProvider{
		client:      &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		apiKey:      apiKey,
		accessToken: accessToken,
		tracer:      tracer,
		limiter:     newThrottle(3, 350*time.Millisecond),
	}
}

// FetchBars fetches historical OHLCV bars for a symbol between from and to.
func (p *KiteProvider) FetchBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]domain.Bar, error) {
	_, span := p.tracer.Start(ctx, "kite.fetch-bars")
	defer span.End()

	token, ok := domain.InstrumentToken[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	if _, ok := domain.IntervalDuration[interval]; !ok {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}

	endpoint := fmt.Sprintf("%s/instruments/historical/%s/%s?from=%s&to=%s",
		p.baseURL, token, interval,
		url.QueryEscape(from.Format("2006-01-02 15:04:05")),
		url.QueryEscape(to.Format("2006-01-02 15:04:05")))

	body, err := p.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch bars for %s: %w", symbol, err)
	}

	// Response shape: {"status":"success","data":{"candles":[["2024-01-01T09:15:00+0530",o,h,l,c,v],...]}}
	var raw struct {
		Status string `json:"status"`
		Data   struct {
			Candles [][]any `json:"candles"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse bars for %s: %w", symbol, err)
	}
	if raw.Status != "success" {
		return nil, fmt.Errorf("kite API returned status %q for %s", raw.Status, symbol)
	}

	bars := make([]domain.Bar, 0, len(raw.Data.Candles))
	for _, c := range raw.Data.Candles {
		bar, err := parseKiteCandle(symbol, interval, c)
		if err != nil {
			return nil, fmt.Errorf("parse candle for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

// FetchQuote fetches the last traded price for a symbol.
func (p *KiteProvider) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	_, span := p.tracer.Start(ctx, "kite.fetch-quote")
	defer span.End()

	instrument := "NSE:" + symbol
	endpoint := fmt.Sprintf("%s/quote/ltp?i=%s", p.baseURL, url.QueryEscape(instrument))

	body, err := p.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}

	var raw struct {
		Status string `json:"status"`
		Data   map[string]struct {
			LastPrice float64 `json:"last_price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse quote for %s: %w", symbol, err)
	}
	entry, ok := raw.Data[instrument]
	if !ok {
		return nil, fmt.Errorf("no quote returned for %s", symbol)
	}

	return &domain.Quote{
		Symbol:          symbol,
		Price:           entry.LastPrice,
		LastUpdatedUnix: time.Now().Unix(),
	}, nil
}

// PlaceOrder submits a regular MIS order and returns the order id.
func (p *KiteProvider) PlaceOrder(ctx context.Context, symbol, transactionType string, quantity int) (string, error) {
	_, span := p.tracer.Start(ctx, "kite.place-order")
	defer span.End()

	if quantity < 1 {
		return "", fmt.Errorf("quantity must be >= 1, got %d", quantity)
	}
	if transactionType != "BUY" && transactionType != "SELL" {
		return "", fmt.Errorf("invalid transaction type %q", transactionType)
	}

	form := url.Values{}
	form.Set("tradingsymbol", symbol)
	form.Set("exchange", "NSE")
	form.Set("transaction_type", transactionType)
	form.Set("order_type", "MARKET")
	form.Set("quantity", fmt.Sprintf("%d", quantity))
	form.Set("product", "MIS")
	form.Set("validity", "DAY")

	body, err := p.doRequest(ctx, http.MethodPost, p.baseURL+"/orders/regular", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("place order for %s: %w", symbol, err)
	}

	var raw struct {
		Status string `json:"status"`
		Data   struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("parse order response: %w", err)
	}
	if raw.Status != "success" {
		return "", fmt.Errorf("kite API returned status %q placing order", raw.Status)
	}
	return raw.Data.OrderID, nil
}

func (p *KiteProvider) doRequest(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	if err := p.limiter.acquire(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", p.apiKey, p.accessToken))
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("kite API error %d: %s", resp.StatusCode, string(respBody))
	}
	return io.ReadAll(resp.Body)
}

// parseKiteCandle decodes one candle array: [timestamp, o, h, l, c, volume].
func parseKiteCandle(symbol, interval string, c []any) (domain.Bar, error) {
	if len(c) < 6 {
		return domain.Bar{}, fmt.Errorf("short candle array: %d fields", len(c))
	}
	tsStr, ok := c[0].(string)
	if !ok {
		return domain.Bar{}, fmt.Errorf("timestamp is not a string")
	}
	ts, err := time.Parse("2006-01-02T15:04:05-0700", tsStr)
	if err != nil {
		// Some endpoints return the offset with a colon.
		ts, err = time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parse timestamp %q: %w", tsStr, err)
		}
	}

	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		f, ok := c[i+1].(float64)
		if !ok {
			return domain.Bar{}, fmt.Errorf("field %d is not a number", i+1)
		}
		vals[i] = f
	}

	return domain.Bar{
		Symbol:    symbol,
		Interval:  interval,
		Timestamp: ts.UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

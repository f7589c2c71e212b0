package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/seenimoa/deepscreen/internal/infra"
)

const (
	fmpBaseURL = "https://financialmodelingprep.com/api/v3"
	fmpV4URL   = "https://financialmodelingprep.com/api/v4"

	// Years of annual statements fetched per symbol. Six covers the
	// five-year CAGR window; the shorter derivations slice from the tail.
	statementYears = 6
)

// Market cap band edges used to assemble a universe balanced across company
// sizes. They line up with the categorization boundaries downstream.
const (
	capNanoUpper  = 50_000_000
	capMicroUpper = 300_000_000
	capSmallUpper = 2_000_000_000
)

// FMPClient talks to Financial Modeling Prep. All per-symbol calls tolerate
// upstream failures by returning nil data, except authentication failures
// which always propagate so a dead key is not mistaken for a market holiday.
type FMPClient struct {
	apiKey  string
	baseURL string
	v4URL   string
	client  *http.Client
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// FMPOption customizes client construction.
type FMPOption func(*FMPClient)

// WithBaseURLs overrides the v3 and v4 endpoints. Tests point these at a
// local server.
func WithBaseURLs(base, v4 string) FMPOption {
	return func(c *FMPClient) { c.baseURL, c.v4URL = base, v4 }
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) FMPOption {
	return func(c *FMPClient) { c.client = client }
}

// WithRateLimit bounds outbound requests to n per period.
func WithRateLimit(n int, period time.Duration) FMPOption {
	return func(c *FMPClient) { c.limiter = infra.NewRateLimiter(n, period) }
}

// WithCacheTTL sets how long fetched payloads stay reusable.
func WithCacheTTL(ttl time.Duration) FMPOption {
	return func(c *FMPClient) { c.cache = infra.NewCache(ttl) }
}

func NewFMPClient(apiKey string, opts ...FMPOption) *FMPClient {
	c := &FMPClient{
		apiKey:  apiKey,
		baseURL: fmpBaseURL,
		v4URL:   fmpV4URL,
		client:  HTTPClient,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(10, time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FlushCache drops cached payloads so the next refresh refetches everything.
func (c *FMPClient) FlushCache() { c.cache.Flush() }

// Universe pulls the screener in four market-cap bands and merges them into
// one deduplicated list of at most total actively traded common stocks.
func (c *FMPClient) Universe(ctx context.Context, total int) ([]ScreenerItem, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if total < 4 {
		total = 4
	}
	perBand := total / 4
	midLarge := total - 3*perBand
	if midLarge < 10 {
		midLarge = 10
	}

	bands := []struct {
		limit int
		lower int64
		upper int64
	}{
		{perBand, 0, capNanoUpper},
		{perBand, capNanoUpper, capMicroUpper},
		{perBand, capMicroUpper, capSmallUpper},
		{midLarge, capSmallUpper, 0},
	}

	seen := make(map[string]bool)
	var merged []ScreenerItem
	for _, band := range bands {
		items, err := c.screenBand(ctx, band.limit, band.lower, band.upper)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if item.Symbol == "" || seen[item.Symbol] {
				continue
			}
			if item.IsEtf || item.IsFund {
				continue
			}
			if item.IsActivelyTrading != nil && !*item.IsActivelyTrading {
				continue
			}
			seen[item.Symbol] = true
			merged = append(merged, item)
		}
	}
	if len(merged) > total {
		merged = merged[:total]
	}
	return merged, nil
}

func (c *FMPClient) screenBand(ctx context.Context, limit int, lower, upper int64) ([]ScreenerItem, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	if lower > 0 {
		q.Set("marketCapMoreThan", fmt.Sprint(lower))
	}
	if upper > 0 {
		q.Set("marketCapLowerThan", fmt.Sprint(upper))
	}
	q.Set("exchange", "NASDAQ,NYSE,OTC")
	q.Set("isActivelyTrading", "true")
	q.Set("apikey", c.apiKey)

	var items []ScreenerItem
	if err := c.fetch(ctx, c.baseURL+"/stock-screener?"+q.Encode(), "screener", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchSymbol gathers everything record assembly needs for one symbol. Any
// per-endpoint failure other than an auth failure leaves that slot nil.
func (c *FMPClient) FetchSymbol(ctx context.Context, item ScreenerItem) (*SymbolData, error) {
	data := &SymbolData{Screener: item}
	symbol := item.Symbol

	ratios, err := fetchOne[RatiosTTM](c, ctx, c.v3URL("ratios-ttm", symbol), "ratios:"+symbol)
	if err != nil {
		return nil, err
	}
	data.Ratios = ratios

	metrics, err := fetchOne[KeyMetricsTTM](c, ctx, c.v3URL("key-metrics-ttm", symbol), "metrics:"+symbol)
	if err != nil {
		return nil, err
	}
	data.KeyMetrics = metrics

	quote, err := fetchOne[Quote](c, ctx, c.v3URL("quote", symbol), "quote:"+symbol)
	if err != nil {
		return nil, err
	}
	data.Quote = quote

	income, err := fetchTolerant[IncomeStatement](c, ctx,
		c.v3URL("income-statement", symbol)+fmt.Sprintf("&period=annual&limit=%d", statementYears), "income:"+symbol)
	if err != nil {
		return nil, err
	}
	data.Income = income

	balance, err := fetchTolerant[BalanceSheet](c, ctx,
		c.v3URL("balance-sheet-statement", symbol)+fmt.Sprintf("&period=annual&limit=%d", statementYears), "balance:"+symbol)
	if err != nil {
		return nil, err
	}
	data.Balance = balance

	trades, err := fetchTolerant[InsiderTransaction](c, ctx,
		fmt.Sprintf("%s/insider-trading?symbol=%s&limit=100&page=0&apikey=%s", c.v4URL, url.PathEscape(symbol), c.apiKey),
		"insider-trades:"+symbol)
	if err != nil {
		return nil, err
	}
	data.Trades = trades

	ownership, err := fetchTolerant[InsiderOwnership](c, ctx,
		fmt.Sprintf("%s/insider-ownership?symbol=%s&apikey=%s", c.v4URL, url.PathEscape(symbol), c.apiKey),
		"insider-ownership:"+symbol)
	if err != nil {
		return nil, err
	}
	data.Ownership = ownership

	return data, nil
}

// LatestOwnershipPct extracts the most recently filed insider ownership
// percentage, or nil when nothing usable was reported.
func LatestOwnershipPct(rows []InsiderOwnership) *float64 {
	var usable []InsiderOwnership
	for _, row := range rows {
		if row.OwnershipPercentage != nil {
			usable = append(usable, row)
		}
	}
	if len(usable) == 0 {
		return nil
	}
	sort.Slice(usable, func(i, j int) bool { return usable[i].FilingDate > usable[j].FilingDate })
	return usable[0].OwnershipPercentage
}

func (c *FMPClient) v3URL(endpoint, symbol string) string {
	return fmt.Sprintf("%s/%s/%s?apikey=%s", c.baseURL, endpoint, url.PathEscape(symbol), c.apiKey)
}

// fetch performs one cached, rate-limited JSON request. Auth failures are
// surfaced as-is.
func (c *FMPClient) fetch(ctx context.Context, fullURL, cacheKey string, v any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	if cached, ok := c.cache.Get(cacheKey); ok {
		if raw, ok := cached.([]byte); ok {
			return unmarshalCached(raw, v)
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	raw, err := readAll(ctx, c.client, fullURL)
	if err != nil {
		return err
	}
	c.cache.Set(cacheKey, raw)
	return unmarshalCached(raw, v)
}

// fetchTolerant fetches a list endpoint, swallowing everything but auth
// failures: a 404 or flaky upstream only blanks this symbol's slice.
func fetchTolerant[T any](c *FMPClient, ctx context.Context, fullURL, cacheKey string) ([]T, error) {
	var rows []T
	if err := c.fetch(ctx, fullURL, cacheKey, &rows); err != nil {
		if IsAuthError(err) {
			return nil, err
		}
		return nil, nil
	}
	return rows, nil
}

// fetchOne is fetchTolerant for endpoints that answer with a single-element
// array.
func fetchOne[T any](c *FMPClient, ctx context.Context, fullURL, cacheKey string) (*T, error) {
	rows, err := fetchTolerant[T](c, ctx, fullURL, cacheKey)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"volguard/internal/adapters/exchanges"
	"volguard/internal/adapters/exchanges/ratelimit"
)

const (
	defaultBaseURL     = "https://eapi.binance.com"
	defaultHTTPTimeout = 10 * time.Second

	expiryHourUTC = 8
)

// Config configures the Binance European options client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
}

// NewClient creates a new Binance options adapter using public
// market data endpoints.
func NewClient(cfg Config) exchanges.Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &client{cfg: cfg}
}

type client struct {
	cfg Config
}

func (c *client) Name() string {
	return "binance"
}

// FetchOptionQuotes merges the 24h ticker feed with mark data (IV and
// Greeks) for every option on the given underlying. Binance does not
// expose per-contract open interest on the bulk endpoints, so open
// interest is left zero.
func (c *client) FetchOptionQuotes(ctx context.Context, symbol string) ([]exchanges.RawQuote, error) {
	prefix := strings.ToUpper(symbol) + "-"

	tickers, err := c.fetchTickers(ctx)
	if err != nil {
		return nil, err
	}

	marks, err := c.fetchMarks(ctx)
	if err != nil {
		return nil, err
	}

	underlying, err := c.GetUnderlyingPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var quotes []exchanges.RawQuote
	for _, t := range tickers {
		if !strings.HasPrefix(t.Symbol, prefix) {
			continue
		}

		strike, expiry, optType, err := parseContract(t.Symbol)
		if err != nil {
			continue
		}

		m := marks[t.Symbol]
		quotes = append(quotes, exchanges.RawQuote{
			Exchange:          c.Name(),
			Symbol:            strings.ToUpper(symbol),
			OptionType:        optType,
			Strike:            strike,
			Expiry:            expiry,
			UnderlyingPrice:   underlying,
			OptionPrice:       parseFloat(t.LastPrice),
			Volume:            parseFloat(t.Volume),
			ImpliedVolatility: parseFloat(m.MarkIV),
			Delta:             parseFloat(m.Delta),
			Gamma:             parseFloat(m.Gamma),
			Theta:             parseFloat(m.Theta),
			Vega:              parseFloat(m.Vega),
			HasGreek:          m.Delta != "",
			Timestamp:         now,
		})
	}

	if len(quotes) == 0 {
		return nil, exchanges.ErrNoData
	}

	return quotes, nil
}

func (c *client) GetUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{"underlying": []string{strings.ToUpper(symbol) + "USDT"}}

	data, err := c.get(ctx, "/eapi/v1/index", params)
	if err != nil {
		return 0, err
	}

	var res struct {
		IndexPrice string `json:"indexPrice"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return 0, err
	}

	return parseFloat(res.IndexPrice), nil
}

type optionTicker struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume    string `json:"volume"`
}

func (c *client) fetchTickers(ctx context.Context) ([]optionTicker, error) {
	data, err := c.get(ctx, "/eapi/v1/ticker", nil)
	if err != nil {
		return nil, err
	}

	var res []optionTicker
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return res, nil
}

type optionMark struct {
	Symbol string `json:"symbol"`
	MarkIV string `json:"markIV"`
	Delta  string `json:"delta"`
	Gamma  string `json:"gamma"`
	Theta  string `json:"theta"`
	Vega   string `json:"vega"`
}

func (c *client) fetchMarks(ctx context.Context) (map[string]optionMark, error) {
	data, err := c.get(ctx, "/eapi/v1/mark", nil)
	if err != nil {
		return nil, err
	}

	var res []optionMark
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}

	out := make(map[string]optionMark, len(res))
	for _, m := range res {
		out[m.Symbol] = m
	}
	return out, nil
}

func (c *client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqURL := c.cfg.BaseURL + path
	if params != nil {
		if query := params.Encode(); query != "" {
			reqURL = reqURL + "?" + query
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot {
		return nil, exchanges.ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("binance: %s returned %d: %s", path, resp.StatusCode, payload)
	}

	return payload, nil
}

// parseContract splits a contract symbol like BTC-250627-50000-C.
func parseContract(symbol string) (float64, time.Time, string, error) {
	parts := strings.Split(symbol, "-")
	if len(parts) != 4 {
		return 0, time.Time{}, "", fmt.Errorf("unexpected contract symbol %q", symbol)
	}

	date, err := time.Parse("060102", parts[1])
	if err != nil {
		return 0, time.Time{}, "", fmt.Errorf("bad expiry in %q: %w", symbol, err)
	}
	expiry := time.Date(date.Year(), date.Month(), date.Day(), expiryHourUTC, 0, 0, 0, time.UTC)

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, time.Time{}, "", fmt.Errorf("bad strike in %q: %w", symbol, err)
	}

	var optType string
	switch parts[3] {
	case "C":
		optType = "call"
	case "P":
		optType = "put"
	default:
		return 0, time.Time{}, "", fmt.Errorf("bad option type in %q", symbol)
	}

	return strike, expiry, optType, nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

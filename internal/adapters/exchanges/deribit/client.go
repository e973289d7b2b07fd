package deribit

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
	defaultBaseURL     = "https://www.deribit.com"
	defaultHTTPTimeout = 10 * time.Second

	// Deribit options expire at 08:00 UTC
	expiryHourUTC = 8
)

// Config configures the Deribit client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
}

// NewClient creates a new Deribit adapter. Only public market data
// endpoints are used, no credentials required.
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
	return "deribit"
}

// FetchOptionQuotes returns the book summary for every live option
// contract on the given currency. Deribit does not include Greeks in
// the summary, so quotes are flagged for model-side derivation.
func (c *client) FetchOptionQuotes(ctx context.Context, symbol string) ([]exchanges.RawQuote, error) {
	params := url.Values{
		"currency": []string{strings.ToUpper(symbol)},
		"kind":     []string{"option"},
	}

	data, err := c.get(ctx, "/api/v2/public/get_book_summary_by_currency", params)
	if err != nil {
		return nil, err
	}

	var res struct {
		Result []struct {
			InstrumentName  string  `json:"instrument_name"`
			MarkPrice       float64 `json:"mark_price"`
			MarkIV          float64 `json:"mark_iv"`
			UnderlyingPrice float64 `json:"underlying_price"`
			Volume          float64 `json:"volume"`
			OpenInterest    float64 `json:"open_interest"`
			CreationTS      int64   `json:"creation_timestamp"`
		} `json:"result"`
	}

	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}

	if len(res.Result) == 0 {
		return nil, exchanges.ErrNoData
	}

	quotes := make([]exchanges.RawQuote, 0, len(res.Result))
	for _, row := range res.Result {
		strike, expiry, optType, err := parseInstrument(row.InstrumentName)
		if err != nil {
			continue
		}

		quotes = append(quotes, exchanges.RawQuote{
			Exchange:        c.Name(),
			Symbol:          strings.ToUpper(symbol),
			OptionType:      optType,
			Strike:          strike,
			Expiry:          expiry,
			UnderlyingPrice: row.UnderlyingPrice,
			// mark price is quoted in units of the underlying
			OptionPrice:       row.MarkPrice * row.UnderlyingPrice,
			Volume:            row.Volume,
			OpenInterest:      row.OpenInterest,
			ImpliedVolatility: row.MarkIV / 100,
			HasGreek:          false,
			Timestamp:         time.UnixMilli(row.CreationTS),
		})
	}

	return quotes, nil
}

func (c *client) GetUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	index := strings.ToLower(symbol) + "_usd"
	params := url.Values{"index_name": []string{index}}

	data, err := c.get(ctx, "/api/v2/public/get_index_price", params)
	if err != nil {
		return 0, err
	}

	var res struct {
		Result struct {
			IndexPrice float64 `json:"index_price"`
		} `json:"result"`
	}

	if err := json.Unmarshal(data, &res); err != nil {
		return 0, err
	}

	return res.Result.IndexPrice, nil
}

func (c *client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqURL := c.cfg.BaseURL + path
	if query := params.Encode(); query != "" {
		reqURL = reqURL + "?" + query
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

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, exchanges.ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("deribit: %s returned %d: %s", path, resp.StatusCode, payload)
	}

	return payload, nil
}

var months = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// parseInstrument splits an instrument name like BTC-27JUN25-50000-C
// into strike, expiry and option type.
func parseInstrument(name string) (float64, time.Time, string, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 4 {
		return 0, time.Time{}, "", fmt.Errorf("unexpected instrument name %q", name)
	}

	expiry, err := parseExpiry(parts[1])
	if err != nil {
		return 0, time.Time{}, "", err
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, time.Time{}, "", fmt.Errorf("bad strike in %q: %w", name, err)
	}

	var optType string
	switch parts[3] {
	case "C":
		optType = "call"
	case "P":
		optType = "put"
	default:
		return 0, time.Time{}, "", fmt.Errorf("bad option type in %q", name)
	}

	return strike, expiry, optType, nil
}

// parseExpiry parses the 27JUN25 date segment.
func parseExpiry(s string) (time.Time, error) {
	if len(s) < 6 {
		return time.Time{}, fmt.Errorf("bad expiry %q", s)
	}

	monthStr := s[len(s)-5 : len(s)-2]
	month, ok := months[monthStr]
	if !ok {
		return time.Time{}, fmt.Errorf("bad expiry month %q", s)
	}

	day, err := strconv.Atoi(s[:len(s)-5])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad expiry day %q: %w", s, err)
	}

	year, err := strconv.Atoi(s[len(s)-2:])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad expiry year %q: %w", s, err)
	}

	return time.Date(2000+year, month, day, expiryHourUTC, 0, 0, 0, time.UTC), nil
}

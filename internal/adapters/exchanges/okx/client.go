package okx

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
	defaultBaseURL     = "https://www.okx.com"
	defaultHTTPTimeout = 10 * time.Second

	expiryHourUTC = 8
)

// Config configures the OKX client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
}

// NewClient creates a new OKX adapter using public market data endpoints.
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
	return "okx"
}

// FetchOptionQuotes merges the option summary (Greeks, IV), tickers
// (volume, last price) and open interest feeds for one underlying.
func (c *client) FetchOptionQuotes(ctx context.Context, symbol string) ([]exchanges.RawQuote, error) {
	family := strings.ToUpper(symbol) + "-USD"

	summaries, err := c.fetchSummaries(ctx, family)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, exchanges.ErrNoData
	}

	tickers, err := c.fetchTickers(ctx, family)
	if err != nil {
		return nil, err
	}

	interest, err := c.fetchOpenInterest(ctx, family)
	if err != nil {
		return nil, err
	}

	underlying, err := c.GetUnderlyingPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	quotes := make([]exchanges.RawQuote, 0, len(summaries))
	for _, s := range summaries {
		strike, expiry, optType, err := parseInstrument(s.InstID)
		if err != nil {
			continue
		}

		t := tickers[s.InstID]
		quotes = append(quotes, exchanges.RawQuote{
			Exchange:        c.Name(),
			Symbol:          strings.ToUpper(symbol),
			OptionType:      optType,
			Strike:          strike,
			Expiry:          expiry,
			UnderlyingPrice: underlying,
			// option prices are quoted in units of the underlying
			OptionPrice:       parseFloat(t.Last) * underlying,
			Volume:            parseFloat(t.Vol24h),
			OpenInterest:      interest[s.InstID],
			ImpliedVolatility: parseFloat(s.MarkVol),
			Delta:             parseFloat(s.DeltaBS),
			Gamma:             parseFloat(s.GammaBS),
			Theta:             parseFloat(s.ThetaBS),
			Vega:              parseFloat(s.VegaBS),
			HasGreek:          s.DeltaBS != "",
			Timestamp:         now,
		})
	}

	return quotes, nil
}

func (c *client) GetUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	instID := strings.ToUpper(symbol) + "-USD"
	params := url.Values{"instId": []string{instID}}

	data, err := c.get(ctx, "/api/v5/market/index-tickers", params)
	if err != nil {
		return 0, err
	}

	var res struct {
		Data []struct {
			IdxPx string `json:"idxPx"`
		} `json:"data"`
	}

	if err := json.Unmarshal(data, &res); err != nil {
		return 0, err
	}
	if len(res.Data) == 0 {
		return 0, exchanges.ErrNoData
	}

	return parseFloat(res.Data[0].IdxPx), nil
}

type optSummary struct {
	InstID  string `json:"instId"`
	MarkVol string `json:"markVol"`
	DeltaBS string `json:"deltaBS"`
	GammaBS string `json:"gammaBS"`
	ThetaBS string `json:"thetaBS"`
	VegaBS  string `json:"vegaBS"`
}

func (c *client) fetchSummaries(ctx context.Context, family string) ([]optSummary, error) {
	params := url.Values{"uly": []string{family}}

	data, err := c.get(ctx, "/api/v5/public/opt-summary", params)
	if err != nil {
		return nil, err
	}

	var res struct {
		Data []optSummary `json:"data"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}

	return res.Data, nil
}

type ticker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	Vol24h string `json:"vol24h"`
}

func (c *client) fetchTickers(ctx context.Context, family string) (map[string]ticker, error) {
	params := url.Values{
		"instType": []string{"OPTION"},
		"uly":      []string{family},
	}

	data, err := c.get(ctx, "/api/v5/market/tickers", params)
	if err != nil {
		return nil, err
	}

	var res struct {
		Data []ticker `json:"data"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}

	out := make(map[string]ticker, len(res.Data))
	for _, t := range res.Data {
		out[t.InstID] = t
	}
	return out, nil
}

func (c *client) fetchOpenInterest(ctx context.Context, family string) (map[string]float64, error) {
	params := url.Values{
		"instType": []string{"OPTION"},
		"uly":      []string{family},
	}

	data, err := c.get(ctx, "/api/v5/public/open-interest", params)
	if err != nil {
		return nil, err
	}

	var res struct {
		Data []struct {
			InstID string `json:"instId"`
			OI     string `json:"oi"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(res.Data))
	for _, row := range res.Data {
		out[row.InstID] = parseFloat(row.OI)
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
		return nil, fmt.Errorf("okx: %s returned %d: %s", path, resp.StatusCode, payload)
	}

	return payload, nil
}

// parseInstrument splits an instrument id like BTC-USD-250627-50000-C.
func parseInstrument(instID string) (float64, time.Time, string, error) {
	parts := strings.Split(instID, "-")
	if len(parts) != 5 {
		return 0, time.Time{}, "", fmt.Errorf("unexpected instrument id %q", instID)
	}

	date, err := time.Parse("060102", parts[2])
	if err != nil {
		return 0, time.Time{}, "", fmt.Errorf("bad expiry in %q: %w", instID, err)
	}
	expiry := time.Date(date.Year(), date.Month(), date.Day(), expiryHourUTC, 0, 0, 0, time.UTC)

	strike, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return 0, time.Time{}, "", fmt.Errorf("bad strike in %q: %w", instID, err)
	}

	var optType string
	switch parts[4] {
	case "C":
		optType = "call"
	case "P":
		optType = "put"
	default:
		return 0, time.Time{}, "", fmt.Errorf("bad option type in %q", instID)
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

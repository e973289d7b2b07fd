package deribit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstrument(t *testing.T) {
	strike, expiry, optType, err := parseInstrument("BTC-27JUN25-50000-C")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, strike)
	assert.Equal(t, time.Date(2025, time.June, 27, 8, 0, 0, 0, time.UTC), expiry)
	assert.Equal(t, "call", optType)

	_, _, optType, err = parseInstrument("ETH-5SEP25-2400-P")
	require.NoError(t, err)
	assert.Equal(t, "put", optType)

	_, _, _, err = parseInstrument("BTC-PERPETUAL")
	assert.Error(t, err)

	_, _, _, err = parseInstrument("BTC-27XXX25-50000-C")
	assert.Error(t, err)
}

func TestFetchOptionQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/public/get_book_summary_by_currency", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("currency"))
		assert.Equal(t, "option", r.URL.Query().Get("kind"))

		w.Write([]byte(`{"result":[
			{"instrument_name":"BTC-27JUN25-50000-C","mark_price":0.025,"mark_iv":65.0,
			 "underlying_price":48000,"volume":12.5,"open_interest":340,"creation_timestamp":1735000000000},
			{"instrument_name":"BTC-PERPETUAL","mark_price":48000,"volume":100}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	quotes, err := c.FetchOptionQuotes(context.Background(), "btc")
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "deribit", q.Exchange)
	assert.Equal(t, "BTC", q.Symbol)
	assert.Equal(t, "call", q.OptionType)
	assert.Equal(t, 50000.0, q.Strike)
	assert.InDelta(t, 0.65, q.ImpliedVolatility, 1e-9)
	assert.InDelta(t, 0.025*48000, q.OptionPrice, 1e-9)
	assert.False(t, q.HasGreek)
}

func TestGetUnderlyingPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/public/get_index_price", r.URL.Path)
		assert.Equal(t, "btc_usd", r.URL.Query().Get("index_name"))
		w.Write([]byte(`{"result":{"index_price":48123.5}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	price, err := c.GetUnderlyingPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 48123.5, price)
}

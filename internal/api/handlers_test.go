package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volguard/internal/domain/option"
)

func TestParsePeriod(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/risk/BTC?period=4h", nil)
	period, err := parsePeriod(r)
	require.NoError(t, err)
	assert.Equal(t, option.Period4h, period)

	r = httptest.NewRequest("GET", "/api/v1/risk/BTC", nil)
	period, err = parsePeriod(r)
	require.NoError(t, err)
	assert.Equal(t, option.Period1h, period)

	r = httptest.NewRequest("GET", "/api/v1/risk/BTC?period=2h", nil)
	_, err = parsePeriod(r)
	assert.Error(t, err)
}

func TestParseWindow(t *testing.T) {
	r := httptest.NewRequest("GET", "/?from=2026-08-01T00:00:00Z&to=2026-08-02T00:00:00Z", nil)
	from, to, err := parseWindow(r)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), to)

	// Defaults to trailing 24h
	r = httptest.NewRequest("GET", "/", nil)
	from, to, err = parseWindow(r)
	require.NoError(t, err)
	assert.InDelta(t, defaultLookback.Seconds(), to.Sub(from).Seconds(), 1)

	// Inverted range rejected
	r = httptest.NewRequest("GET", "/?from=2026-08-02T00:00:00Z&to=2026-08-01T00:00:00Z", nil)
	_, _, err = parseWindow(r)
	assert.Error(t, err)

	// Bad timestamp rejected
	r = httptest.NewRequest("GET", "/?from=yesterday", nil)
	_, _, err = parseWindow(r)
	assert.Error(t, err)
}

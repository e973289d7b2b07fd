package option

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volguard/pkg/errors"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("1h")
	require.NoError(t, err)
	assert.Equal(t, Period1h, p)
	assert.Equal(t, 60, p.Minutes())
	assert.Equal(t, time.Hour, p.Duration())

	_, err = ParsePeriod("2h")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidPeriod))
}

func TestMonitoredPeriodsExclude30d(t *testing.T) {
	for _, p := range MonitoredPeriods() {
		assert.NotEqual(t, Period30d, p)
	}
	assert.Len(t, MonitoredPeriods(), len(AllPeriods())-1)
}

func TestQuoteTimeToExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	q := Quote{Expiry: now.Add(365 * 24 * time.Hour)}
	assert.InDelta(t, 1.0, q.TimeToExpiry(now), 1e-9)

	expired := Quote{Expiry: now.Add(-time.Hour)}
	assert.Equal(t, 0.0, expired.TimeToExpiry(now))
}

package alertsservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volguard/pkg/errors"
	"volguard/pkg/logger"

	"volguard/internal/domain/alert"
	"volguard/internal/domain/option"
)

type thresholdKey struct {
	indicator alert.Indicator
	period    option.Period
}

// mockAlertRepo is an in-memory alert.Repository
type mockAlertRepo struct {
	thresholds map[thresholdKey]*alert.Threshold
	alerts     []*alert.Alert
}

func newMockAlertRepo() *mockAlertRepo {
	return &mockAlertRepo{thresholds: make(map[thresholdKey]*alert.Threshold)}
}

func (m *mockAlertRepo) GetThreshold(_ context.Context, indicator alert.Indicator, period option.Period) (*alert.Threshold, error) {
	t, ok := m.thresholds[thresholdKey{indicator, period}]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return t, nil
}

func (m *mockAlertRepo) UpsertThreshold(_ context.Context, t *alert.Threshold) error {
	m.thresholds[thresholdKey{t.Indicator, t.Period}] = t
	return nil
}

func (m *mockAlertRepo) ListThresholds(_ context.Context) ([]alert.Threshold, error) {
	out := make([]alert.Threshold, 0, len(m.thresholds))
	for _, t := range m.thresholds {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockAlertRepo) InsertAlert(_ context.Context, a *alert.Alert) error {
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *mockAlertRepo) HasUnacknowledged(_ context.Context, symbol string, indicator alert.Indicator, period option.Period, tier alert.Tier) (bool, error) {
	for _, a := range m.alerts {
		if !a.Acknowledged && a.Symbol == symbol && a.Indicator == indicator && a.Period == period && a.Tier == tier {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAlertRepo) GetUnacknowledged(_ context.Context, symbol string) ([]alert.Alert, error) {
	var out []alert.Alert
	for _, a := range m.alerts {
		if !a.Acknowledged && a.Symbol == symbol {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAlertRepo) AcknowledgeAlert(_ context.Context, id string) error {
	for _, a := range m.alerts {
		if a.ID.String() == id {
			a.Acknowledged = true
			return nil
		}
	}
	return errors.ErrAlertNotFound
}

func newTestGate() (*Gate, *mockAlertRepo) {
	repo := newMockAlertRepo()
	return NewGate(repo, logger.Get()), repo
}

func TestGate_SeedsDefaultsOnFirstCheck(t *testing.T) {
	gate, repo := newTestGate()
	ctx := context.Background()

	a, err := gate.Check(ctx, "BTC", alert.IndicatorPutCallRatio, 1.0, option.Period4h)
	require.NoError(t, err)
	assert.Nil(t, a, "neutral PCR crosses no tier")

	seeded, ok := repo.thresholds[thresholdKey{alert.IndicatorPutCallRatio, option.Period4h}]
	require.True(t, ok)
	assert.Equal(t, 1.2, seeded.Attention)
	assert.Equal(t, 1.5, seeded.Warning)
	assert.Equal(t, 2.0, seeded.Severe)
	assert.True(t, seeded.IsEnabled)
}

func TestGate_MostSevereTierWins(t *testing.T) {
	gate, _ := newTestGate()
	ctx := context.Background()

	a, err := gate.Check(ctx, "BTC", alert.IndicatorPutCallRatio, 2.3, option.Period1h)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, alert.TierSevere, a.Tier)
	assert.Equal(t, 2.3, a.Value)

	a, err = gate.Check(ctx, "BTC", alert.IndicatorPutCallRatio, 1.6, option.Period15m)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, alert.TierWarning, a.Tier)
}

func TestGate_Deduplication(t *testing.T) {
	gate, repo := newTestGate()
	ctx := context.Background()

	first, err := gate.Check(ctx, "BTC", alert.IndicatorReflexivity, 0.8, option.Period4h)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Same crossing again: suppressed while unacknowledged
	second, err := gate.Check(ctx, "BTC", alert.IndicatorReflexivity, 0.9, option.Period4h)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, repo.alerts, 1)

	// After acknowledgement a new crossing raises again
	require.NoError(t, repo.AcknowledgeAlert(ctx, first.ID.String()))
	third, err := gate.Check(ctx, "BTC", alert.IndicatorReflexivity, 0.85, option.Period4h)
	require.NoError(t, err)
	require.NotNil(t, third)
	assert.Len(t, repo.alerts, 2)
}

func TestGate_SeparateTiersAndSymbolsDoNotDedup(t *testing.T) {
	gate, repo := newTestGate()
	ctx := context.Background()

	_, err := gate.Check(ctx, "BTC", alert.IndicatorReflexivity, 0.35, option.Period4h)
	require.NoError(t, err)
	_, err = gate.Check(ctx, "BTC", alert.IndicatorReflexivity, 0.8, option.Period4h)
	require.NoError(t, err)
	_, err = gate.Check(ctx, "ETH", alert.IndicatorReflexivity, 0.35, option.Period4h)
	require.NoError(t, err)

	assert.Len(t, repo.alerts, 3)
}

func TestGate_DisabledThreshold(t *testing.T) {
	gate, repo := newTestGate()
	ctx := context.Background()

	repo.thresholds[thresholdKey{alert.IndicatorVolatilitySkew, option.Period1d}] = &alert.Threshold{
		Indicator: alert.IndicatorVolatilitySkew,
		Period:    option.Period1d,
		Attention: 0.5,
		Warning:   1.0,
		Severe:    1.5,
		IsEnabled: false,
	}

	a, err := gate.Check(ctx, "BTC", alert.IndicatorVolatilitySkew, 2.0, option.Period1d)
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.Empty(t, repo.alerts)
}

func TestGate_UpdateThresholdValidation(t *testing.T) {
	gate, _ := newTestGate()
	ctx := context.Background()

	err := gate.UpdateThreshold(ctx, &alert.Threshold{
		Indicator: alert.IndicatorVolatilityIndex,
		Period:    option.Period4h,
		Attention: 30,
		Warning:   20, // out of order
		Severe:    40,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidThreshold))

	err = gate.UpdateThreshold(ctx, &alert.Threshold{
		Indicator: alert.IndicatorVolatilityIndex,
		Period:    "2h",
		Attention: 10,
		Warning:   20,
		Severe:    30,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidPeriod))

	err = gate.UpdateThreshold(ctx, &alert.Threshold{
		Indicator: alert.IndicatorVolatilityIndex,
		Period:    option.Period4h,
		Attention: 10,
		Warning:   20,
		Severe:    30,
	})
	require.NoError(t, err)
}

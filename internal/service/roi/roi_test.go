package roi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSmallSystem(t *testing.T) {
	est, err := Calculate(300, 0.9)
	require.NoError(t, err)

	assert.Equal(t, 4, est.PanelsNeeded)
	assert.Equal(t, 2200, est.TotalWatts)
	assert.Equal(t, 330.0, est.MonthlyGeneration)
	assert.Equal(t, 297.0, est.MonthlySavings)
	assert.Equal(t, 3564.0, est.AnnualSavings)
	// 4 panels + small inverter + installation.
	assert.Equal(t, 10086.0, est.TotalCost)
	assert.Equal(t, 2.8, est.PaybackYears)
	assert.Equal(t, 79014.0, est.LifetimeSavings)
}

func TestCalculateMinimumPanels(t *testing.T) {
	est, err := Calculate(50, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, est.PanelsNeeded)
}

func TestCalculateLargeSystemUsesLargeInverter(t *testing.T) {
	small, err := Calculate(300, 0.9)
	require.NoError(t, err)
	large, err := Calculate(1000, 0.9)
	require.NoError(t, err)

	assert.Equal(t, 12, large.PanelsNeeded)
	// Per-panel cost delta plus the inverter upgrade.
	perPanel := panelCost + installPerPanel
	assert.Equal(t, large.TotalCost-small.TotalCost,
		float64(large.PanelsNeeded-small.PanelsNeeded)*perPanel+(largeInverterCost-smallInverterCost))
}

func TestCalculateDefaultTariff(t *testing.T) {
	est, err := Calculate(300, 0)
	require.NoError(t, err)
	assert.Equal(t, 280.5, est.MonthlySavings)
}

func TestCalculateInvalidConsumption(t *testing.T) {
	_, err := Calculate(0, 0.9)
	assert.ErrorIs(t, err, ErrInvalidConsumption)

	_, err = Calculate(-10, 0.9)
	assert.ErrorIs(t, err, ErrInvalidConsumption)
}

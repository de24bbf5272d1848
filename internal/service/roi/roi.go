// Package roi sizes a solar installation for a monthly consumption figure
// and estimates the payback on the investment.
package roi

import (
	"errors"
	"math"
)

const (
	panelWatts    = 550
	minPanels     = 4
	sunHoursPerDay = 5

	panelCost         = 1299.00
	smallInverterCost = 2890.00
	largeInverterCost = 8990.00
	installPerPanel   = 500.00

	systemLifeYears = 25
)

var ErrInvalidConsumption = errors.New("consumption must be greater than zero")

type Estimate struct {
	PanelsNeeded      int     `json:"panels_needed"`
	TotalWatts        int     `json:"total_watts"`
	MonthlyGeneration float64 `json:"monthly_generation"`
	MonthlySavings    float64 `json:"monthly_savings"`
	AnnualSavings     float64 `json:"annual_savings"`
	TotalCost         float64 `json:"total_cost"`
	PaybackYears      float64 `json:"payback_years"`
	LifetimeSavings   float64 `json:"lifetime_savings"`
}

func Calculate(monthlyKWh, tariff float64) (*Estimate, error) {
	if monthlyKWh <= 0 {
		return nil, ErrInvalidConsumption
	}
	if tariff <= 0 {
		tariff = 0.85
	}

	dailyKWh := monthlyKWh / 30
	wattsNeeded := dailyKWh / sunHoursPerDay * 1000

	panels := int(math.Round(wattsNeeded / panelWatts))
	if panels < minPanels {
		panels = minPanels
	}

	totalWatts := panels * panelWatts
	monthlyGen := float64(totalWatts) / 1000 * sunHoursPerDay * 30
	monthlySavings := monthlyGen * tariff
	annualSavings := monthlySavings * 12

	inverterCost := smallInverterCost
	if panels > 6 {
		inverterCost = largeInverterCost
	}
	totalCost := float64(panels)*panelCost + inverterCost + float64(panels)*installPerPanel

	return &Estimate{
		PanelsNeeded:      panels,
		TotalWatts:        totalWatts,
		MonthlyGeneration: round2(monthlyGen),
		MonthlySavings:    round2(monthlySavings),
		AnnualSavings:     round2(annualSavings),
		TotalCost:         round2(totalCost),
		PaybackYears:      math.Round(totalCost/annualSavings*10) / 10,
		LifetimeSavings:   round2(annualSavings*systemLifeYears - totalCost),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

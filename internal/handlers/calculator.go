package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/solarpro/storefront/internal/service/roi"
)

type CalculatorHandler struct{}

// Estimate sizes a solar system for a monthly consumption figure.
func (h *CalculatorHandler) Estimate(c echo.Context) error {
	var req struct {
		MonthlyKWh float64 `json:"monthly_kwh"`
		Tariff     float64 `json:"tariff"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	est, err := roi.Calculate(req.MonthlyKWh, req.Tariff)
	if errors.Is(err, roi.ErrInvalidConsumption) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, est)
}

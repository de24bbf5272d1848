package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/solarpro/storefront/internal/assistant"
	"github.com/solarpro/storefront/internal/service/stats"
	"github.com/solarpro/storefront/internal/settings"
)

type ChatHandler struct {
	Assistant *assistant.Service
	Stats     *stats.Service
	Settings  *settings.Store
}

func (h *ChatHandler) abandonThreshold(c echo.Context) time.Duration {
	hours := h.Settings.GetInt(c.Request().Context(), "cart_abandon_hours", 24)
	return time.Duration(hours) * time.Hour
}

// Chat is the customer-facing surface; the context block lists featured
// products.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is empty")
	}

	ctx := c.Request().Context()
	contextBlock, err := h.Stats.CustomerContext(ctx)
	if err != nil {
		c.Logger().Errorf("chat context error: %v", err)
		contextBlock = ""
	}

	reply := h.Assistant.GetResponse(ctx, req.Message, contextBlock)
	return c.JSON(http.StatusOK, map[string]any{
		"reply":  reply,
		"status": h.Assistant.Status(),
	})
}

// AdminChat injects live store statistics into the prompt context.
func (h *ChatHandler) AdminChat(c echo.Context) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is empty")
	}

	ctx := c.Request().Context()
	contextBlock, err := h.Stats.AdminContext(ctx, h.abandonThreshold(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	reply := h.Assistant.GetResponse(ctx, req.Message, contextBlock)
	return c.JSON(http.StatusOK, map[string]any{
		"reply":  reply,
		"status": h.Assistant.Status(),
	})
}

func (h *ChatHandler) Recommendation(c echo.Context) error {
	var req struct {
		ConsumptionKWh float64 `json:"consumption_kwh"`
		Location       string  `json:"location"`
		Budget         string  `json:"budget"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	reply := h.Assistant.GetRecommendation(c.Request().Context(), req.ConsumptionKWh, req.Location, req.Budget)
	return c.JSON(http.StatusOK, map[string]any{"reply": reply})
}

func (h *ChatHandler) Savings(c echo.Context) error {
	var req struct {
		ConsumptionKWh float64 `json:"consumption_kwh"`
		Tariff         float64 `json:"tariff"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	reply := h.Assistant.GetSavingsEstimate(c.Request().Context(), req.ConsumptionKWh, req.Tariff)
	return c.JSON(http.StatusOK, map[string]any{"reply": reply})
}

func (h *ChatHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Assistant.Status())
}

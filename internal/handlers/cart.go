package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/solarpro/storefront/internal/auth"
	"github.com/solarpro/storefront/internal/events"
	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/service/carts"
)

type CartHandler struct {
	Carts    *carts.Service
	Producer *events.Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	cart, err := h.Carts.Active(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if cart == nil {
		return c.JSON(http.StatusOK, []models.CartLine{})
	}
	return c.JSON(http.StatusOK, cart.Lines())
}

// SaveCart replaces the active cart with the submitted snapshot.
func (h *CartHandler) SaveCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Products []models.CartLine `json:"products"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Carts.Save(c.Request().Context(), userID, req.Products)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	event := map[string]any{
		"type":   "cart_updated",
		"userID": userID,
		"total":  cart.Total,
	}
	if err := h.Producer.Publish(c.Request().Context(), events.TopicCarts, fmt.Sprint(userID), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "total": cart.Total})
}

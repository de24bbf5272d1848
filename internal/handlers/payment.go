package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/auth"
	"github.com/solarpro/storefront/internal/logging"
	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/payment"
	"github.com/solarpro/storefront/internal/settings"
)

type PaymentHandler struct {
	DB       *gorm.DB
	Gateway  payment.Gateway
	Settings *settings.Store

	// PublicURL is the externally reachable base used for callback URLs.
	PublicURL string
}

func (h *PaymentHandler) ownedOrder(c echo.Context, orderID uint) (*models.Order, error) {
	userID, err := auth.UserID(c)
	if err != nil {
		return nil, err
	}
	var order models.Order
	dbErr := h.DB.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if dbErr != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return &order, nil
}

// CreatePayment asks the gateway for a hosted checkout preference for an
// order the caller owns. Not retried on failure.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create")

	accessToken := h.Settings.Get(ctx, "mercadopago_access_token", "")
	if accessToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payment not configured, contact the store")
	}

	var req struct {
		OrderID uint `json:"orderId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.ownedOrder(c, req.OrderID)
	if err != nil {
		return err
	}

	pref, err := h.Gateway.CreatePreference(ctx, accessToken, payment.PreferenceRequest{
		OrderID:    order.ID,
		Title:      fmt.Sprintf("Order #%d - SolarPro", order.ID),
		Amount:     order.Total,
		PayerEmail: order.Email,
		PayerName:  order.CustomerName,
		SuccessURL: fmt.Sprintf("%s/api/v1/payments/success/%d", h.PublicURL, order.ID),
		FailureURL: fmt.Sprintf("%s/api/v1/payments/failure/%d", h.PublicURL, order.ID),
		PendingURL: fmt.Sprintf("%s/api/v1/payments/pending/%d", h.PublicURL, order.ID),
	})
	if err != nil {
		l.Error("preference_create_failed", "orderID", order.ID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "payment unavailable, try again later")
	}

	initPoint := pref.InitPoint
	if h.Settings.GetBool(ctx, "mercadopago_sandbox", true) {
		initPoint = pref.SandboxInitPoint
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id":         pref.ID,
		"init_point": initPoint,
	})
}

func orderIDParam(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// PaymentSuccess is the gateway's approved-return: the order is marked
// approved and paid.
func (h *PaymentHandler) PaymentSuccess(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	order, err := h.ownedOrder(c, orderID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"payment_status": models.PaymentStatusApproved,
		"status":         models.OrderStatusPaid,
		"payment_ref":    c.QueryParam("payment_id"),
		"paid_at":        now,
	}
	if err := h.DB.Model(order).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "orderId": order.ID, "status": models.OrderStatusPaid})
}

func (h *PaymentHandler) PaymentFailure(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	order, err := h.ownedOrder(c, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": false,
		"orderId": order.ID,
		"message": "there was a problem with the payment, try again",
	})
}

func (h *PaymentHandler) PaymentPending(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	order, err := h.ownedOrder(c, orderID)
	if err != nil {
		return err
	}

	if err := h.DB.Model(order).Update("payment_status", models.PaymentStatusPending).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"orderId": order.ID,
		"message": "payment pending, you will be notified once approved",
	})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/auth"
	"github.com/solarpro/storefront/internal/events"
	"github.com/solarpro/storefront/internal/logging"
	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/service/checkout"
	"github.com/solarpro/storefront/internal/service/coupon"
)

type CheckoutHandler struct {
	DB       *gorm.DB
	Engine   *checkout.Engine
	Producer *events.Producer
}

type checkoutLine struct {
	ID       uint `json:"id"`
	Quantity int  `json:"quantity"`
	// Display hint only; the engine recomputes prices from the catalog.
	UnitPriceClientHint float64 `json:"unitPriceClientHint"`
}

type checkoutRequest struct {
	Products []checkoutLine `json:"products"`
	Address  struct {
		Street     string `json:"street"`
		City       string `json:"city"`
		State      string `json:"state"`
		PostalCode string `json:"postalCode"`
	} `json:"address"`
	CouponCode string `json:"couponCode"`
	Phone      string `json:"phone"`
	TaxID      string `json:"taxId"`
}

type checkoutResponse struct {
	Success       bool    `json:"success"`
	OrderID       uint    `json:"orderId,omitempty"`
	Total         float64 `json:"total,omitempty"`
	CouponApplied bool    `json:"couponApplied"`
	CouponReason  string  `json:"couponReason,omitempty"`
	Error         string  `json:"error,omitempty"`
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.Where("id = ? AND active = ?", userID, true).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "account not found")
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, checkoutResponse{Error: "invalid body"})
	}

	lines := make([]checkout.Line, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, checkout.Line{ProductID: p.ID, Quantity: p.Quantity})
	}

	out, err := h.Engine.PlaceOrder(ctx, &user, checkout.Request{
		Lines:      lines,
		Street:     req.Address.Street,
		City:       req.Address.City,
		State:      req.Address.State,
		PostalCode: req.Address.PostalCode,
		Phone:      req.Phone,
		TaxID:      req.TaxID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrValidation):
			l.Warn("checkout_rejected", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, checkoutResponse{Error: err.Error()})
		case errors.Is(err, checkout.ErrNotFound):
			l.Warn("checkout_rejected", "status", 404, "error", err)
			return c.JSON(http.StatusNotFound, checkoutResponse{Error: err.Error()})
		case errors.Is(err, checkout.ErrConflict):
			l.Warn("checkout_rejected", "status", 409, "error", err)
			return c.JSON(http.StatusConflict, checkoutResponse{Error: err.Error()})
		default:
			l.Error("checkout_failed", "error", err)
			return c.JSON(http.StatusInternalServerError, checkoutResponse{Error: "internal error"})
		}
	}

	event := map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": out.Order.ID,
		"total":   out.Order.Total,
	}
	if err := h.Producer.Publish(ctx, events.TopicOrders, fmt.Sprint(userID), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}

	l.Info("checkout_success", "orderID", out.Order.ID, "total", out.Order.Total)
	return c.JSON(http.StatusOK, checkoutResponse{
		Success:       true,
		OrderID:       out.Order.ID,
		Total:         out.Order.Total,
		CouponApplied: out.CouponApplied,
		CouponReason:  out.CouponReason,
	})
}

// ValidateCoupon previews a coupon against a cart total without consuming
// its usage budget.
func (h *CheckoutHandler) ValidateCoupon(c echo.Context) error {
	var req struct {
		Code         string  `json:"code"`
		CurrentTotal float64 `json:"currentTotal"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, _, err := coupon.Validate(c.Request().Context(), h.DB, req.Code, decimal.NewFromFloat(req.CurrentTotal))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if !res.Valid {
		return c.JSON(http.StatusOK, map[string]any{"valid": false, "error": res.Reason})
	}

	discount, _ := res.Discount.Round(2).Float64()
	return c.JSON(http.StatusOK, map[string]any{
		"valid":          true,
		"discountAmount": discount,
		"description":    res.Description,
	})
}

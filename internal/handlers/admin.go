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
	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/service/carts"
	"github.com/solarpro/storefront/internal/service/coupon"
	"github.com/solarpro/storefront/internal/service/stats"
	"github.com/solarpro/storefront/internal/settings"
	"github.com/solarpro/storefront/internal/util"
)

type AdminHandler struct {
	DB       *gorm.DB
	Stats    *stats.Service
	Carts    *carts.Service
	Settings *settings.Store
}

func (h *AdminHandler) abandonThreshold(c echo.Context) time.Duration {
	hours := h.Settings.GetInt(c.Request().Context(), "cart_abandon_hours", 24)
	return time.Duration(hours) * time.Hour
}

// logAction records back-office mutations for the audit trail. Failures are
// logged and swallowed; auditing never blocks the action itself.
func (h *AdminHandler) logAction(c echo.Context, action, details string) {
	userID, err := auth.UserID(c)
	if err != nil {
		return
	}
	entry := models.AdminLog{
		UserID:  userID,
		Action:  action,
		Details: details,
		IP:      c.RealIP(),
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&entry).Error; err != nil {
		c.Logger().Errorf("admin log error: %v", err)
	}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	sum, err := h.Stats.Summary(c.Request().Context(), h.abandonThreshold(c))
	if err != nil {
		c.Logger().Errorf("dashboard error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	q := h.DB.WithContext(c.Request().Context()).Model(&models.Order{})
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(from).Limit(limit).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = orderView{Order: orders[i], Items: orders[i].Lines()}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":  total,
		"orders": views,
	})
}

func (h *AdminHandler) GetOrder(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	dbErr := h.DB.WithContext(c.Request().Context()).First(&order, id).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if dbErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orderView{Order: order, Items: order.Lines()})
}

// Fulfilment moves forward only. Cancellation is allowed before shipping;
// delivered and cancelled orders are final.
var orderTransitions = map[string][]string{
	models.OrderStatusAwaitingPayment: {models.OrderStatusPaid, models.OrderStatusCancelled, models.OrderStatusFailed},
	models.OrderStatusPaid:            {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:         {models.OrderStatusDelivered},
}

func transitionAllowed(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var order models.Order
	dbErr := h.DB.WithContext(c.Request().Context()).First(&order, id).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if dbErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if !transitionAllowed(order.Status, req.Status) {
		return echo.NewHTTPError(http.StatusConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, req.Status))
	}

	prev := order.Status
	now := time.Now().UTC()
	updates := map[string]interface{}{"status": req.Status}
	switch req.Status {
	case models.OrderStatusPaid:
		updates["payment_status"] = models.PaymentStatusApproved
		updates["paid_at"] = now
	case models.OrderStatusShipped:
		updates["shipped_at"] = now
	case models.OrderStatusDelivered:
		updates["delivered_at"] = now
	}
	if err := h.DB.WithContext(c.Request().Context()).Model(&order).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.logAction(c, "order_status_updated", fmt.Sprintf("order #%d: %s -> %s", order.ID, prev, req.Status))
	return c.JSON(http.StatusOK, map[string]any{"success": true, "status": req.Status})
}

func (h *AdminHandler) ListCustomers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	q := h.DB.WithContext(c.Request().Context()).Model(&models.User{}).
		Where("role = ?", models.RoleCustomer)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var users []models.User
	if err := q.Order("created_at DESC").Offset(from).Limit(limit).Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":     total,
		"customers": users,
	})
}

func (h *AdminHandler) AbandonedCarts(c echo.Context) error {
	list, err := h.Carts.ListAbandoned(c.Request().Context(), h.abandonThreshold(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, list)
}

type couponRequest struct {
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
	Value       float64    `json:"value"`
	MinOrder    float64    `json:"min_order"`
	UsageLimit  *int       `json:"usage_limit"`
	Active      *bool      `json:"active"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

func (r *couponRequest) validate() error {
	if coupon.Canonicalize(r.Code) == "" {
		return errors.New("code is required")
	}
	if r.Kind != models.CouponKindPercent && r.Kind != models.CouponKindFixed {
		return errors.New("kind must be percent or fixed")
	}
	if r.Value <= 0 {
		return errors.New("value must be greater than zero")
	}
	if r.Kind == models.CouponKindPercent && r.Value > 100 {
		return errors.New("percent value cannot exceed 100")
	}
	return nil
}

func (h *AdminHandler) ListCoupons(c echo.Context) error {
	var list []models.Coupon
	if err := h.DB.WithContext(c.Request().Context()).Order("id DESC").Find(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) CreateCoupon(c echo.Context) error {
	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cp := models.Coupon{
		Code:        coupon.Canonicalize(req.Code),
		Description: req.Description,
		Kind:        req.Kind,
		Value:       req.Value,
		MinOrder:    req.MinOrder,
		UsageLimit:  req.UsageLimit,
		Active:      true,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	if req.Active != nil {
		cp.Active = *req.Active
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&cp).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, "coupon code already exists")
	}

	h.logAction(c, "coupon_created", cp.Code)
	return c.JSON(http.StatusCreated, cp)
}

func (h *AdminHandler) UpdateCoupon(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var cp models.Coupon
	dbErr := h.DB.WithContext(c.Request().Context()).First(&cp, id).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	if dbErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cp.Code = coupon.Canonicalize(req.Code)
	cp.Description = req.Description
	cp.Kind = req.Kind
	cp.Value = req.Value
	cp.MinOrder = req.MinOrder
	cp.UsageLimit = req.UsageLimit
	cp.StartsAt = req.StartsAt
	cp.EndsAt = req.EndsAt
	if req.Active != nil {
		cp.Active = *req.Active
	}
	if err := h.DB.WithContext(c.Request().Context()).Save(&cp).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, "coupon code already exists")
	}

	h.logAction(c, "coupon_updated", cp.Code)
	return c.JSON(http.StatusOK, cp)
}

func (h *AdminHandler) DeleteCoupon(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	res := h.DB.WithContext(c.Request().Context()).Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
	}

	h.logAction(c, "coupon_deleted", fmt.Sprintf("id=%d", id))
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

var recognizedSettings = map[string]bool{
	"mercadopago_access_token": true,
	"mercadopago_public_key":   true,
	"mercadopago_sandbox":      true,
	"store_name":               true,
	"store_email":              true,
	"store_phone":              true,
	"store_whatsapp":           true,
	"store_address":            true,
	"free_shipping_above":      true,
	"low_stock_alert":          true,
	"cart_abandon_hours":       true,
}

func (h *AdminHandler) GetSettings(c echo.Context) error {
	list, err := h.Settings.All(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateSettings accepts a flat key/value map and persists only recognized
// keys; unknown keys are reported back, not stored.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	var ignored []string
	for key, value := range req {
		if !recognizedSettings[key] {
			ignored = append(ignored, key)
			continue
		}
		if err := h.Settings.Set(ctx, key, value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.logAction(c, "settings_updated", fmt.Sprintf("%d keys", len(req)-len(ignored)))
	return c.JSON(http.StatusOK, map[string]any{"success": true, "ignored": ignored})
}

func (h *AdminHandler) ListContacts(c echo.Context) error {
	q := h.DB.WithContext(c.Request().Context()).Model(&models.ContactMessage{})
	if c.QueryParam("pending") == "1" {
		q = q.Where("answered = ?", false)
	}

	var list []models.ContactMessage
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) MarkContactAnswered(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	res := h.DB.WithContext(c.Request().Context()).
		Model(&models.ContactMessage{}).
		Where("id = ?", id).
		Update("answered", true)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "message not found")
	}

	h.logAction(c, "contact_answered", fmt.Sprintf("id=%d", id))
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (h *AdminHandler) ListLogs(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	var list []models.AdminLog
	err := h.DB.WithContext(c.Request().Context()).
		Order("created_at DESC").Offset(from).Limit(limit).
		Find(&list).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, list)
}

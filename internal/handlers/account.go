package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/auth"
	"github.com/solarpro/storefront/internal/models"
)

type AccountHandler struct {
	DB *gorm.DB
}

func (h *AccountHandler) Me(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		TaxID      string `json:"tax_id"`
		Street     string `json:"street"`
		City       string `json:"city"`
		State      string `json:"state"`
		PostalCode string `json:"postal_code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"phone":       req.Phone,
		"tax_id":      req.TaxID,
		"street":      req.Street,
		"city":        req.City,
		"state":       req.State,
		"postal_code": req.PostalCode,
	}
	if err := h.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, user)
}

type orderView struct {
	models.Order
	Items []models.OrderLine `json:"items"`
}

func (h *AccountHandler) MyOrders(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = orderView{Order: orders[i], Items: orders[i].Lines()}
	}
	return c.JSON(http.StatusOK, views)
}

func (h *AccountHandler) GetOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	dbErr := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if dbErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orderView{Order: order, Items: order.Lines()})
}

func (h *AccountHandler) Wishlist(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var products []models.Product
	err = h.DB.
		Joins("JOIN wishlist_items ON wishlist_items.product_id = products.id").
		Where("wishlist_items.user_id = ? AND products.active = ?", userID, true).
		Find(&products).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *AccountHandler) AddToWishlist(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.DB.Where("id = ? AND active = ?", productID, true).First(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	item := models.WishlistItem{UserID: userID, ProductID: uint(productID)}
	if err := h.DB.Create(&item).Error; err != nil {
		// Unique index: already on the list.
		return c.JSON(http.StatusOK, map[string]any{"success": true, "already": true})
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true})
}

func (h *AccountHandler) RemoveFromWishlist(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.WishlistItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

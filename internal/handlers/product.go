package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/events"
	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if err := h.Producer.Publish(c.Request().Context(), events.TopicProducts, fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.DB.Where("id = ? AND active = ?", id, true).First(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Product{}).Where("active = ?", true)

	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if c.QueryParam("featured") == "1" {
		q = q.Where("featured = ?", true)
	}

	switch c.QueryParam("sort") {
	case "price_asc":
		q = q.Order("price ASC")
	case "price_desc":
		q = q.Order("price DESC")
	case "power_desc":
		q = q.Order("power_watts DESC")
	case "sales":
		q = q.Order("sales DESC")
	default:
		q = q.Order("name ASC")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.Product
	if err := q.Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) Categories(c echo.Context) error {
	var categories []string
	err := h.DB.Model(&models.Product{}).
		Where("active = ?", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, categories)
}

type productRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	PromoPrice    *float64 `json:"promo_price"`
	PowerWatts    int      `json:"power_watts"`
	Efficiency    float64  `json:"efficiency"`
	WarrantyYears int      `json:"warranty_years"`
	Stock         int      `json:"stock"`
	LowStockAt    int      `json:"low_stock_at"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	Specs         string   `json:"specs"`
	Active        bool     `json:"active"`
	Featured      bool     `json:"featured"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and positive price are required")
	}

	lowStockAt := req.LowStockAt
	if lowStockAt == 0 {
		lowStockAt = 5
	}

	prod := models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		PromoPrice:    req.PromoPrice,
		PowerWatts:    req.PowerWatts,
		Efficiency:    req.Efficiency,
		WarrantyYears: req.WarrantyYears,
		Stock:         req.Stock,
		LowStockAt:    lowStockAt,
		Image:         req.Image,
		Category:      req.Category,
		Specs:         req.Specs,
		Active:        req.Active,
		Featured:      req.Featured,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod.Name = req.Name
	prod.Description = req.Description
	prod.Price = req.Price
	prod.PromoPrice = req.PromoPrice
	prod.PowerWatts = req.PowerWatts
	prod.Efficiency = req.Efficiency
	prod.WarrantyYears = req.WarrantyYears
	prod.Stock = req.Stock
	if req.LowStockAt > 0 {
		prod.LowStockAt = req.LowStockAt
	}
	prod.Image = req.Image
	prod.Category = req.Category
	prod.Specs = req.Specs
	prod.Active = req.Active
	prod.Featured = req.Featured

	if err := h.DB.Save(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

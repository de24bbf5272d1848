// Package stats aggregates read-only store figures for the admin dashboard
// and the AI assistant context blocks.
package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/service/carts"
)

type ProductStat struct {
	Name  string `json:"name"`
	Sales int    `json:"sales"`
	Stock int    `json:"stock"`
}

type Summary struct {
	TotalOrders     int64                 `json:"total_orders"`
	OrdersToday     int64                 `json:"orders_today"`
	PendingOrders   int64                 `json:"pending_orders"`
	RevenueMonth    float64               `json:"revenue_month"`
	RevenueTotal    float64               `json:"revenue_total"`
	TotalCustomers  int64                 `json:"total_customers"`
	LowStock        []ProductStat         `json:"low_stock"`
	BestSellers     []ProductStat         `json:"best_sellers"`
	AbandonedCarts  []carts.AbandonedCart `json:"abandoned_carts"`
	PendingContacts int64                 `json:"pending_contacts"`
}

type Service struct {
	DB    *gorm.DB
	Carts *carts.Service
}

func (s *Service) Summary(ctx context.Context, abandonThreshold time.Duration) (*Summary, error) {
	db := s.DB.WithContext(ctx)
	sum := &Summary{}

	if err := db.Model(&models.Order{}).Count(&sum.TotalOrders).Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	if err := db.Model(&models.Order{}).
		Where("created_at >= ?", startOfDay).
		Count(&sum.OrdersToday).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusAwaitingPayment).
		Count(&sum.PendingOrders).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Order{}).
		Where("payment_status = ? AND created_at >= ?", models.PaymentStatusApproved, startOfMonth).
		Select("COALESCE(SUM(total), 0)").
		Scan(&sum.RevenueMonth).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusApproved).
		Select("COALESCE(SUM(total), 0)").
		Scan(&sum.RevenueTotal).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleCustomer).
		Count(&sum.TotalCustomers).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Product{}).
		Where("active = ? AND stock <= low_stock_at", true).
		Order("stock ASC").Limit(10).
		Select("name, sales, stock").
		Scan(&sum.LowStock).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).
		Where("active = ?", true).
		Order("sales DESC").Limit(5).
		Select("name, sales, stock").
		Scan(&sum.BestSellers).Error; err != nil {
		return nil, err
	}

	abandoned, err := s.Carts.ListAbandoned(ctx, abandonThreshold)
	if err != nil {
		return nil, err
	}
	sum.AbandonedCarts = abandoned

	if err := db.Model(&models.ContactMessage{}).
		Where("answered = ?", false).
		Count(&sum.PendingContacts).Error; err != nil {
		return nil, err
	}

	return sum, nil
}

// AdminContext renders the store figures into the context block injected
// into the admin-facing assistant chat.
func (s *Service) AdminContext(ctx context.Context, abandonThreshold time.Duration) (string, error) {
	sum, err := s.Summary(ctx, abandonThreshold)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are an e-commerce assistant helping the administrator of the SolarPro solar equipment store.\n\n")
	b.WriteString("CURRENT STORE DATA:\n")
	fmt.Fprintf(&b, "- Total orders: %d\n", sum.TotalOrders)
	fmt.Fprintf(&b, "- Revenue this month: %.2f\n", sum.RevenueMonth)
	fmt.Fprintf(&b, "- Orders awaiting payment: %d\n", sum.PendingOrders)
	fmt.Fprintf(&b, "- Products low on stock: %d\n", len(sum.LowStock))
	for _, p := range sum.LowStock {
		fmt.Fprintf(&b, "  - %s (%d units)\n", p.Name, p.Stock)
	}
	fmt.Fprintf(&b, "- Abandoned carts: %d\n", len(sum.AbandonedCarts))
	for _, c := range sum.AbandonedCarts {
		name := c.CustomerName
		if name == "" {
			name = "unidentified customer"
		}
		fmt.Fprintf(&b, "  - %s: %.2f | email: %s | phone: %s\n", name, c.Total, c.CustomerEmail, c.CustomerPhone)
	}
	b.WriteString("\nBEST SELLERS:\n")
	for _, p := range sum.BestSellers {
		fmt.Fprintf(&b, "- %s: %d sold (stock %d)\n", p.Name, p.Sales, p.Stock)
	}
	b.WriteString("\nHelp the administrator increase sales, recover abandoned carts, manage stock and spot trends. Be specific and actionable.")
	return b.String(), nil
}

// CustomerContext lists featured products for the customer-facing chat.
func (s *Service) CustomerContext(ctx context.Context) (string, error) {
	var featured []models.Product
	err := s.DB.WithContext(ctx).
		Where("active = ? AND featured = ?", true, true).
		Limit(5).
		Find(&featured).Error
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Featured products in the store:\n")
	for _, p := range featured {
		fmt.Fprintf(&b, "- %s (%s): %.2f, %dW\n", p.Name, p.Category, p.EffectivePrice(), p.PowerWatts)
	}
	return b.String(), nil
}

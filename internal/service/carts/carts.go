package carts

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/models"
)

type Service struct {
	DB *gorm.DB
}

// Save replaces the user's active cart snapshot (last-writer-wins; there
// is no merge). A new active cart is created when none exists.
func (s *Service) Save(ctx context.Context, userID uint, lines []models.CartLine) (*models.Cart, error) {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	itemsJSON, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	totalF, _ := total.Round(2).Float64()

	var cart models.Cart
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{
			UserID:    userID,
			ItemsJSON: string(itemsJSON),
			Total:     totalF,
			Status:    models.CartStatusActive,
		}
		if err := s.DB.WithContext(ctx).Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}

	cart.ItemsJSON = string(itemsJSON)
	cart.Total = totalF
	if err := s.DB.WithContext(ctx).Save(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Service) Active(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AbandonedCart is an active cart older than the abandonment threshold,
// joined with the owner's contact data for follow-up.
type AbandonedCart struct {
	models.Cart
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

// ListAbandoned classifies on every call; abandonment is derived, never
// stored. Results come back ordered by cart total, highest first.
func (s *Service) ListAbandoned(ctx context.Context, threshold time.Duration) ([]AbandonedCart, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	var out []AbandonedCart
	err := s.DB.WithContext(ctx).
		Table("carts").
		Select("carts.*, users.name AS customer_name, users.email AS customer_email, users.phone AS customer_phone").
		Joins("LEFT JOIN users ON users.id = carts.user_id").
		Where("carts.status = ? AND carts.updated_at < ?", models.CartStatusActive, cutoff).
		Order("carts.total DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

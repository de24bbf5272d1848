// Package checkout turns a client cart into an order. Every line is
// re-validated against the catalog and totals are recomputed server-side;
// client-submitted prices are never trusted.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/service/coupon"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

type Line struct {
	ProductID uint
	Quantity  int
}

type Request struct {
	Lines      []Line
	Street     string
	City       string
	State      string
	PostalCode string
	Phone      string
	TaxID      string
	CouponCode string
}

// Outcome reports the created order plus how the coupon (if any) was
// treated. An unusable coupon never fails the order; it comes back with
// CouponApplied=false and the validator's reason.
type Outcome struct {
	Order         *models.Order
	CouponApplied bool
	CouponReason  string
}

type Engine struct {
	DB *gorm.DB
}

// PlaceOrder runs the checkout as one transaction: line validation, coupon
// redemption, order creation, stock/sales mutation and cart conversion all
// persist together or not at all.
func (e *Engine) PlaceOrder(ctx context.Context, user *models.User, req Request) (*Outcome, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	for _, f := range []struct{ name, value string }{
		{"street", req.Street},
		{"city", req.City},
		{"state", req.State},
		{"postal_code", req.PostalCode},
	} {
		if f.value == "" {
			return nil, fmt.Errorf("%w: missing field %s", ErrValidation, f.name)
		}
	}

	out := &Outcome{}

	txErr := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		orderLines := make([]models.OrderLine, 0, len(req.Lines))

		for _, line := range req.Lines {
			if line.Quantity <= 0 {
				return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
			}

			var p models.Product
			err := tx.Where("id = ? AND active = ?", line.ProductID, true).First(&p).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
			}
			if err != nil {
				return err
			}
			if p.Stock < line.Quantity {
				return fmt.Errorf("%w: insufficient stock for %q (available %d)", ErrConflict, p.Name, p.Stock)
			}

			unit := decimal.NewFromFloat(p.EffectivePrice())
			lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineTotal)

			orderLines = append(orderLines, models.OrderLine{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  line.Quantity,
				UnitPrice: round2(unit),
				Subtotal:  round2(lineTotal),
			})
		}

		discount := decimal.Zero
		var appliedCode *string
		if code := coupon.Canonicalize(req.CouponCode); code != "" {
			res, cp, err := coupon.Validate(ctx, tx, code, subtotal)
			if err != nil {
				return err
			}
			if !res.Valid {
				out.CouponReason = res.Reason
			} else {
				redeemed, err := redeem(tx, cp)
				if err != nil {
					return err
				}
				if !redeemed {
					out.CouponReason = "coupon usage limit reached"
				} else {
					discount = res.Discount
					appliedCode = &code
					out.CouponApplied = true
				}
			}
		}

		total := subtotal.Sub(discount)

		itemsJSON, err := json.Marshal(orderLines)
		if err != nil {
			return err
		}

		order := models.Order{
			UserID:        user.ID,
			CustomerName:  user.Name,
			Email:         user.Email,
			Phone:         firstNonEmpty(req.Phone, user.Phone),
			TaxID:         firstNonEmpty(req.TaxID, user.TaxID),
			Street:        req.Street,
			City:          req.City,
			State:         req.State,
			PostalCode:    req.PostalCode,
			ItemsJSON:     string(itemsJSON),
			Subtotal:      round2(subtotal),
			Discount:      round2(discount),
			Total:         round2(total),
			CouponCode:    appliedCode,
			PaymentStatus: models.PaymentStatusPending,
			Status:        models.OrderStatusAwaitingPayment,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Guarded decrement so concurrent checkouts can never take the
		// stock below zero.
		for _, line := range orderLines {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
				Updates(map[string]interface{}{
					"stock": gorm.Expr("stock - ?", line.Quantity),
					"sales": gorm.Expr("sales + ?", line.Quantity),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: insufficient stock for %q", ErrConflict, line.Name)
			}
		}

		if err := tx.Model(&models.Cart{}).
			Where("user_id = ? AND status = ?", user.ID, models.CartStatusActive).
			Update("status", models.CartStatusConverted).Error; err != nil {
			return err
		}

		out.Order = &order
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return out, nil
}

// redeem increments the usage counter, guarded by the cap so concurrent
// redemptions never overrun it. Returns false when the cap was hit.
func redeem(tx *gorm.DB, cp *models.Coupon) (bool, error) {
	q := tx.Model(&models.Coupon{}).Where("id = ?", cp.ID)
	if cp.UsageLimit != nil {
		q = q.Where("used_count < ?", *cp.UsageLimit)
	}
	res := q.Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/models"
)

// Result classifies a coupon against an order subtotal. Reason is set
// whenever Valid is false.
type Result struct {
	Valid       bool
	Discount    decimal.Decimal
	Description string
	Reason      string
}

func Canonicalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate is a pure read over the coupon ledger: it never touches the
// usage counter. Only the checkout redemption path increments usage.
func Validate(ctx context.Context, db *gorm.DB, code string, subtotal decimal.Decimal) (Result, *models.Coupon, error) {
	code = Canonicalize(code)
	if code == "" {
		return Result{Reason: "coupon code is empty"}, nil, nil
	}

	var cp models.Coupon
	err := db.WithContext(ctx).Where("code = ?", code).First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{Reason: "invalid or expired coupon"}, nil, nil
	}
	if err != nil {
		return Result{}, nil, err
	}

	now := time.Now().UTC()
	switch {
	case !cp.Active:
		return Result{Reason: "invalid or expired coupon"}, &cp, nil
	case cp.StartsAt != nil && now.Before(*cp.StartsAt):
		return Result{Reason: "invalid or expired coupon"}, &cp, nil
	case cp.EndsAt != nil && now.After(*cp.EndsAt):
		return Result{Reason: "invalid or expired coupon"}, &cp, nil
	case cp.UsageLimit != nil && cp.UsedCount >= *cp.UsageLimit:
		return Result{Reason: "coupon usage limit reached"}, &cp, nil
	case subtotal.LessThan(decimal.NewFromFloat(cp.MinOrder)):
		return Result{Reason: fmt.Sprintf("minimum order value: %.2f", cp.MinOrder)}, &cp, nil
	}

	res := Result{Valid: true}
	switch cp.Kind {
	case models.CouponKindPercent:
		res.Discount = subtotal.Mul(decimal.NewFromFloat(cp.Value)).Div(decimal.NewFromInt(100))
		res.Description = fmt.Sprintf("%g%% discount", cp.Value)
	default:
		res.Discount = decimal.NewFromFloat(cp.Value)
		res.Description = fmt.Sprintf("%.2f discount", cp.Value)
	}
	return res, &cp, nil
}

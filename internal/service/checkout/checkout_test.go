package checkout

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.Order{},
		&models.Coupon{},
	))
	return db
}

func testUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: models.RoleCustomer, Active: true}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func testProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: price, Stock: stock, Active: true}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func addressedRequest(lines ...Line) Request {
	return Request{
		Lines:      lines,
		Street:     "Rua A, 100",
		City:       "Sao Paulo",
		State:      "SP",
		PostalCode: "01000-000",
	}
}

func TestPlaceOrderRecomputesTotals(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	p := testProduct(t, db, "Panel 550W", 100, 5)

	engine := &Engine{DB: db}
	out, err := engine.PlaceOrder(context.Background(), user, addressedRequest(Line{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, 200.0, out.Order.Subtotal)
	assert.Equal(t, 200.0, out.Order.Total)
	assert.Equal(t, models.OrderStatusAwaitingPayment, out.Order.Status)
	assert.Equal(t, models.PaymentStatusPending, out.Order.PaymentStatus)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)
	assert.Equal(t, 2, reloaded.Sales)

	lines := out.Order.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 100.0, lines[0].UnitPrice)
	assert.Equal(t, 200.0, lines[0].Subtotal)
}

func TestPlaceOrderUsesPromoPrice(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	promo := 80.0
	p := models.Product{Name: "Inverter", Price: 100, PromoPrice: &promo, Stock: 5, Active: true}
	require.NoError(t, db.Create(&p).Error)

	engine := &Engine{DB: db}
	out, err := engine.PlaceOrder(context.Background(), user, addressedRequest(Line{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, 80.0, out.Order.Total)
}

func TestPlaceOrderAppliesPercentCoupon(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	p := testProduct(t, db, "Panel", 100, 5)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "SAVE10", Kind: models.CouponKindPercent, Value: 10, MinOrder: 50, Active: true,
	}).Error)

	engine := &Engine{DB: db}
	req := addressedRequest(Line{ProductID: p.ID, Quantity: 2})
	req.CouponCode = " save10 "

	out, err := engine.PlaceOrder(context.Background(), user, req)
	require.NoError(t, err)

	assert.True(t, out.CouponApplied)
	assert.Equal(t, 20.0, out.Order.Discount)
	assert.Equal(t, 180.0, out.Order.Total)
	require.NotNil(t, out.Order.CouponCode)
	assert.Equal(t, "SAVE10", *out.Order.CouponCode)

	var cp models.Coupon
	require.NoError(t, db.Where("code = ?", "SAVE10").First(&cp).Error)
	assert.Equal(t, 1, cp.UsedCount)
}

func TestPlaceOrderCouponBelowMinimumStillSucceeds(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	p := testProduct(t, db, "Panel", 100, 5)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "BIG", Kind: models.CouponKindFixed, Value: 50, MinOrder: 500, Active: true,
	}).Error)

	engine := &Engine{DB: db}
	req := addressedRequest(Line{ProductID: p.ID, Quantity: 2})
	req.CouponCode = "BIG"

	out, err := engine.PlaceOrder(context.Background(), user, req)
	require.NoError(t, err)

	assert.False(t, out.CouponApplied)
	assert.Equal(t, "minimum order value: 500.00", out.CouponReason)
	assert.Equal(t, 0.0, out.Order.Discount)
	assert.Equal(t, 200.0, out.Order.Total)
	assert.Nil(t, out.Order.CouponCode)

	var cp models.Coupon
	require.NoError(t, db.Where("code = ?", "BIG").First(&cp).Error)
	assert.Equal(t, 0, cp.UsedCount)
}

func TestPlaceOrderCouponCapExhausted(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	p := testProduct(t, db, "Panel", 100, 5)
	limit := 1
	require.NoError(t, db.Create(&models.Coupon{
		Code: "ONCE", Kind: models.CouponKindPercent, Value: 10, UsageLimit: &limit, UsedCount: 1, Active: true,
	}).Error)

	engine := &Engine{DB: db}
	req := addressedRequest(Line{ProductID: p.ID, Quantity: 1})
	req.CouponCode = "ONCE"

	out, err := engine.PlaceOrder(context.Background(), user, req)
	require.NoError(t, err)
	assert.False(t, out.CouponApplied)
	assert.Equal(t, "coupon usage limit reached", out.CouponReason)
	assert.Equal(t, 100.0, out.Order.Total)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	p := testProduct(t, db, "Panel", 100, 5)

	engine := &Engine{DB: db}
	_, err := engine.PlaceOrder(context.Background(), user, addressedRequest(Line{ProductID: p.ID, Quantity: 10}))
	require.ErrorIs(t, err, ErrConflict)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 5, reloaded.Stock)
	assert.Equal(t, 0, reloaded.Sales)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)

	engine := &Engine{DB: db}
	_, err := engine.PlaceOrder(context.Background(), user, addressedRequest())
	require.ErrorIs(t, err, ErrValidation)
}

func TestPlaceOrderMissingAddressField(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	p := testProduct(t, db, "Panel", 100, 5)

	engine := &Engine{DB: db}
	req := addressedRequest(Line{ProductID: p.ID, Quantity: 1})
	req.City = ""

	_, err := engine.PlaceOrder(context.Background(), user, req)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "city")
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)

	engine := &Engine{DB: db}
	_, err := engine.PlaceOrder(context.Background(), user, addressedRequest(Line{ProductID: 999, Quantity: 1}))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceOrderInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	p := models.Product{Name: "Old kit", Price: 100, Stock: 5, Active: false}
	require.NoError(t, db.Create(&p).Error)

	engine := &Engine{DB: db}
	_, err := engine.PlaceOrder(context.Background(), user, addressedRequest(Line{ProductID: p.ID, Quantity: 1}))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceOrderConvertsActiveCart(t *testing.T) {
	db := newTestDB(t)
	user := testUser(t, db)
	p := testProduct(t, db, "Panel", 100, 5)
	cart := models.Cart{UserID: user.ID, ItemsJSON: "[]", Status: models.CartStatusActive}
	require.NoError(t, db.Create(&cart).Error)

	engine := &Engine{DB: db}
	_, err := engine.PlaceOrder(context.Background(), user, addressedRequest(Line{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	var reloaded models.Cart
	require.NoError(t, db.First(&reloaded, cart.ID).Error)
	assert.Equal(t, models.CartStatusConverted, reloaded.Status)
}

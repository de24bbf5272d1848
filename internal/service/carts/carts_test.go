package carts

import (
	"context"
	"testing"
	"time"

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
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Cart{}))
	return db
}

func TestSaveCreatesAndReplaces(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()

	cart, err := svc.Save(ctx, 1, []models.CartLine{
		{ProductID: 1, Name: "Panel", Quantity: 2, UnitPrice: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 200.0, cart.Total)

	// Second save replaces the snapshot, it does not merge.
	cart, err = svc.Save(ctx, 1, []models.CartLine{
		{ProductID: 2, Name: "Inverter", Quantity: 1, UnitPrice: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, cart.Total)

	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint(2), lines[0].ProductID)
}

func TestActiveNilWhenNone(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	cart, err := svc.Active(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, cart)
}

func backdate(t *testing.T, db *gorm.DB, cartID uint, age time.Duration) {
	t.Helper()
	past := time.Now().UTC().Add(-age)
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", cartID).
		UpdateColumn("updated_at", past).Error)
}

func TestListAbandoned(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()

	user := models.User{Name: "Bruno", Email: "bruno@example.com", PasswordHash: "x", Phone: "123"}
	require.NoError(t, db.Create(&user).Error)

	stale := models.Cart{UserID: user.ID, ItemsJSON: "[]", Total: 300, Status: models.CartStatusActive}
	require.NoError(t, db.Create(&stale).Error)
	backdate(t, db, stale.ID, 48*time.Hour)

	staleBigger := models.Cart{UserID: 2, ItemsJSON: "[]", Total: 900, Status: models.CartStatusActive}
	require.NoError(t, db.Create(&staleBigger).Error)
	backdate(t, db, staleBigger.ID, 30*time.Hour)

	fresh := models.Cart{UserID: 3, ItemsJSON: "[]", Total: 100, Status: models.CartStatusActive}
	require.NoError(t, db.Create(&fresh).Error)

	converted := models.Cart{UserID: 4, ItemsJSON: "[]", Total: 500, Status: models.CartStatusConverted}
	require.NoError(t, db.Create(&converted).Error)
	backdate(t, db, converted.ID, 72*time.Hour)

	out, err := svc.ListAbandoned(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Highest total first.
	assert.Equal(t, staleBigger.ID, out[0].ID)
	assert.Equal(t, stale.ID, out[1].ID)

	// Contact data joined from the owner where one exists.
	assert.Equal(t, "Bruno", out[1].CustomerName)
	assert.Equal(t, "bruno@example.com", out[1].CustomerEmail)
	assert.Equal(t, "123", out[1].CustomerPhone)
	assert.Equal(t, "", out[0].CustomerName)

	// Classification is derived: repeating it changes nothing.
	again, err := svc.ListAbandoned(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

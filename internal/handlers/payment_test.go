package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/payment"
	"github.com/solarpro/storefront/internal/settings"
)

type fakeGateway struct {
	lastReq payment.PreferenceRequest
	err     error
}

func (f *fakeGateway) CreatePreference(_ context.Context, _ string, req payment.PreferenceRequest) (*payment.Preference, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Preference{
		ID:               "pref-1",
		InitPoint:        "https://mp.example/init",
		SandboxInitPoint: "https://mp.example/sandbox",
	}, nil
}

func seedPendingOrder(t *testing.T, db *gorm.DB, userID uint) *models.Order {
	t.Helper()
	o := models.Order{
		UserID: userID, CustomerName: "Ana", Email: "ana@example.com",
		Street: "a", City: "b", State: "c", PostalCode: "d",
		ItemsJSON: "[]", Subtotal: 150, Total: 150,
		PaymentStatus: models.PaymentStatusPending, Status: models.OrderStatusAwaitingPayment,
	}
	require.NoError(t, db.Create(&o).Error)
	return &o
}

func newPaymentHandler(db *gorm.DB, gw payment.Gateway) *PaymentHandler {
	return &PaymentHandler{
		DB:        db,
		Gateway:   gw,
		Settings:  &settings.Store{DB: db},
		PublicURL: "https://store.example",
	}
}

func TestCreatePaymentSandboxInitPoint(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	order := seedPendingOrder(t, db, user.ID)

	store := &settings.Store{DB: db}
	require.NoError(t, store.Set(context.Background(), "mercadopago_access_token", "tok"))
	require.NoError(t, store.Set(context.Background(), "mercadopago_sandbox", "1"))

	gw := &fakeGateway{}
	h := newPaymentHandler(db, gw)

	c, rec := jsonContext(echo.New(), http.MethodPost, "/api/v1/payments",
		fmt.Sprintf(`{"orderId": %d}`, order.ID), user.ID)
	require.NoError(t, h.CreatePayment(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pref-1", resp["id"])
	assert.Equal(t, "https://mp.example/sandbox", resp["init_point"])

	assert.Equal(t, order.ID, gw.lastReq.OrderID)
	assert.Equal(t, 150.0, gw.lastReq.Amount)
	assert.Equal(t, fmt.Sprintf("https://store.example/api/v1/payments/success/%d", order.ID), gw.lastReq.SuccessURL)
}

func TestCreatePaymentProductionInitPoint(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	order := seedPendingOrder(t, db, user.ID)

	store := &settings.Store{DB: db}
	require.NoError(t, store.Set(context.Background(), "mercadopago_access_token", "tok"))
	require.NoError(t, store.Set(context.Background(), "mercadopago_sandbox", "0"))

	h := newPaymentHandler(db, &fakeGateway{})
	c, rec := jsonContext(echo.New(), http.MethodPost, "/api/v1/payments",
		fmt.Sprintf(`{"orderId": %d}`, order.ID), user.ID)
	require.NoError(t, h.CreatePayment(c))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://mp.example/init", resp["init_point"])
}

func TestCreatePaymentNotConfigured(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	order := seedPendingOrder(t, db, user.ID)

	h := newPaymentHandler(db, &fakeGateway{})
	c, _ := jsonContext(echo.New(), http.MethodPost, "/api/v1/payments",
		fmt.Sprintf(`{"orderId": %d}`, order.ID), user.ID)

	err := h.CreatePayment(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCreatePaymentGatewayDown(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	order := seedPendingOrder(t, db, user.ID)

	store := &settings.Store{DB: db}
	require.NoError(t, store.Set(context.Background(), "mercadopago_access_token", "tok"))

	h := newPaymentHandler(db, &fakeGateway{err: fmt.Errorf("%w: status 500", payment.ErrExternal)})
	c, _ := jsonContext(echo.New(), http.MethodPost, "/api/v1/payments",
		fmt.Sprintf(`{"orderId": %d}`, order.ID), user.ID)

	err := h.CreatePayment(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.Code)
}

func TestCreatePaymentRejectsForeignOrder(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	other := models.User{Name: "Eve", Email: "eve@example.com", PasswordHash: "x", Role: models.RoleCustomer, Active: true}
	require.NoError(t, db.Create(&other).Error)
	order := seedPendingOrder(t, db, other.ID)

	store := &settings.Store{DB: db}
	require.NoError(t, store.Set(context.Background(), "mercadopago_access_token", "tok"))

	h := newPaymentHandler(db, &fakeGateway{})
	c, _ := jsonContext(echo.New(), http.MethodPost, "/api/v1/payments",
		fmt.Sprintf(`{"orderId": %d}`, order.ID), user.ID)

	err := h.CreatePayment(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestPaymentSuccessMarksOrderPaid(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	order := seedPendingOrder(t, db, user.ID)

	h := newPaymentHandler(db, &fakeGateway{})
	c, rec := jsonContext(echo.New(), http.MethodGet,
		fmt.Sprintf("/api/v1/payments/success/%d?payment_id=mp-9", order.ID), "", user.ID)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(order.ID))

	require.NoError(t, h.PaymentSuccess(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.PaymentStatusApproved, reloaded.PaymentStatus)
	assert.Equal(t, models.OrderStatusPaid, reloaded.Status)
	assert.Equal(t, "mp-9", reloaded.PaymentRef)
	assert.NotNil(t, reloaded.PaidAt)
}

func TestPaymentFailureLeavesOrderUntouched(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	order := seedPendingOrder(t, db, user.ID)

	h := newPaymentHandler(db, &fakeGateway{})
	c, rec := jsonContext(echo.New(), http.MethodGet, "/", "", user.ID)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(order.ID))

	require.NoError(t, h.PaymentFailure(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusAwaitingPayment, reloaded.Status)
	assert.Equal(t, models.PaymentStatusPending, reloaded.PaymentStatus)
}

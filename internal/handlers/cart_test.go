package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarpro/storefront/internal/models"
	"github.com/solarpro/storefront/internal/service/carts"
)

func TestGetCartEmpty(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	h := &CartHandler{Carts: &carts.Service{DB: db}}

	c, rec := jsonContext(echo.New(), http.MethodGet, "/api/v1/cart", "", user.ID)
	require.NoError(t, h.GetCart(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSaveAndGetCart(t *testing.T) {
	db := newTestDB(t)
	user := seedCustomer(t, db)
	h := &CartHandler{Carts: &carts.Service{DB: db}}

	body := `{"products": [{"product_id": 1, "name": "Panel", "quantity": 2, "unit_price": 100}]}`
	c, rec := jsonContext(echo.New(), http.MethodPut, "/api/v1/cart", body, user.ID)
	require.NoError(t, h.SaveCart(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 200.0, resp["total"])

	c, rec = jsonContext(echo.New(), http.MethodGet, "/api/v1/cart", "", user.ID)
	require.NoError(t, h.GetCart(c))

	var lines []models.CartLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, uint(1), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
}

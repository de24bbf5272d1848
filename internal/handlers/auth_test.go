package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarpro/storefront/internal/auth"
	"github.com/solarpro/storefront/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: []byte("test-secret")}

	c, rec := jsonContext(echo.New(), http.MethodPost, "/api/v1/register",
		`{"name": "Ana", "email": " ANA@Example.com ", "password": "secret1"}`, 0)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	// The password hash never leaves the server.
	assert.NotContains(t, rec.Body.String(), "password_hash")

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	c, rec = jsonContext(echo.New(), http.MethodPost, "/api/v1/login",
		`{"email": "ana@example.com", "password": "secret1"}`, 0)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.User
	require.NoError(t, db.Where("email = ?", "ana@example.com").First(&reloaded).Error)
	assert.NotNil(t, reloaded.LastSeenAt)
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: []byte("test-secret")}

	cases := []struct {
		body string
		code int
	}{
		{`{"name": "", "email": "a@b.c", "password": "secret1"}`, http.StatusBadRequest},
		{`{"name": "Ana", "email": "a@b.c", "password": "short"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		c, _ := jsonContext(echo.New(), http.MethodPost, "/api/v1/register", tc.body, 0)
		err := h.Register(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr, tc.body)
		assert.Equal(t, tc.code, httpErr.Code, tc.body)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: []byte("test-secret")}

	c, _ := jsonContext(echo.New(), http.MethodPost, "/api/v1/register",
		`{"name": "Ana", "email": "a@b.c", "password": "secret1"}`, 0)
	require.NoError(t, h.Register(c))

	c, _ = jsonContext(echo.New(), http.MethodPost, "/api/v1/register",
		`{"name": "Other", "email": "a@b.c", "password": "secret2"}`, 0)
	err := h.Register(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestLoginRejectsBadCredentialsAndInactive(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: []byte("test-secret")}

	c, _ := jsonContext(echo.New(), http.MethodPost, "/api/v1/register",
		`{"name": "Ana", "email": "a@b.c", "password": "secret1"}`, 0)
	require.NoError(t, h.Register(c))

	c, _ = jsonContext(echo.New(), http.MethodPost, "/api/v1/login",
		`{"email": "a@b.c", "password": "wrong"}`, 0)
	err := h.Login(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "a@b.c").Update("active", false).Error)
	c, _ = jsonContext(echo.New(), http.MethodPost, "/api/v1/login",
		`{"email": "a@b.c", "password": "secret1"}`, 0)
	err = h.Login(c)
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

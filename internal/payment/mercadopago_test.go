package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePreference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))

		var body mpPreferenceBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, 199.9, body.Items[0].UnitPrice)
		assert.Equal(t, "42", body.ExternalReference)
		assert.Equal(t, "https://store.example/ok", body.BackURLs.Success)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"id":                 "pref-1",
			"init_point":         "https://mp.example/init",
			"sandbox_init_point": "https://mp.example/sandbox",
		})
	}))
	defer srv.Close()

	mp := &MercadoPago{BaseURL: srv.URL, HTTP: srv.Client()}
	pref, err := mp.CreatePreference(context.Background(), "tok", PreferenceRequest{
		OrderID:    42,
		Title:      "Order #42",
		Amount:     199.9,
		PayerEmail: "ana@example.com",
		PayerName:  "Ana",
		SuccessURL: "https://store.example/ok",
		FailureURL: "https://store.example/fail",
		PendingURL: "https://store.example/pending",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://mp.example/init", pref.InitPoint)
	assert.Equal(t, "https://mp.example/sandbox", pref.SandboxInitPoint)
}

func TestCreatePreferenceProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	mp := &MercadoPago{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := mp.CreatePreference(context.Background(), "bad", PreferenceRequest{OrderID: 1})
	require.ErrorIs(t, err, ErrExternal)
}

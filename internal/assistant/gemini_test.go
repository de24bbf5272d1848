package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(handler http.HandlerFunc) (*GeminiClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return &GeminiClient{BaseURL: srv.URL, Model: "test-model", HTTP: srv.Client()}, srv
}

func TestGeminiGenerate(t *testing.T) {
	client, srv := newTestGemini(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "world"}}}},
			},
		})
	})
	defer srv.Close()

	text, err := client.Generate(context.Background(), "secret", "hello")
	require.NoError(t, err)
	assert.Equal(t, "world", text)
}

func TestGeminiGenerateAPIError(t *testing.T) {
	client, srv := newTestGemini(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota exceeded"},
		})
	})
	defer srv.Close()

	_, err := client.Generate(context.Background(), "secret", "hello")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "quota exceeded", apiErr.Message)
}

func TestGeminiGenerateNoCandidates(t *testing.T) {
	client, srv := newTestGemini(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})
	defer srv.Close()

	text, err := client.Generate(context.Background(), "secret", "hello")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

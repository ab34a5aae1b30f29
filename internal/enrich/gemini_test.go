package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClientAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "the prompt")

		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "model output"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(nil, srv.URL, "gemini-2.5-flash", "test-key", 5*time.Second)
	require.NoError(t, err)

	text, err := client.Analyze(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "model output", text)
}

func TestGeminiClientAnalyzeErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "quota exceeded"}`))
		}))
		defer srv.Close()

		client, err := NewGeminiClient(nil, srv.URL, "gemini-2.5-flash", "test-key", 5*time.Second)
		require.NoError(t, err)

		_, err = client.Analyze(context.Background(), "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("no candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates": []}`))
		}))
		defer srv.Close()

		client, err := NewGeminiClient(nil, srv.URL, "gemini-2.5-flash", "test-key", 5*time.Second)
		require.NoError(t, err)

		_, err = client.Analyze(context.Background(), "p")
		require.Error(t, err)
	})
}

func TestNewGeminiClientValidation(t *testing.T) {
	_, err := NewGeminiClient(nil, "http://x", "model", "", time.Second)
	require.Error(t, err)

	_, err = NewGeminiClient(nil, "http://x", "", "key", time.Second)
	require.Error(t, err)
}

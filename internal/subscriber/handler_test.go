package subscriber

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pravaha/internal/platform/logger"
)

func newWebhookServer(t *testing.T) (*httptest.Server, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	service, err := NewService(store, nil)
	require.NoError(t, err)

	router := chi.NewRouter()
	NewHandler(service, logger.New("error")).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func postUpdate(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/telegram/webhook", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebhookSubscribes(t *testing.T) {
	srv, store := newWebhookServer(t)

	resp := postUpdate(t, srv, `{
		"message": {
			"text": "/start",
			"chat": {"id": 123456789},
			"from": {"username": "alice", "first_name": "Alice", "is_bot": false}
		}
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	subs, err := store.ListAll(t.Context())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "123456789", subs[0].ChannelID)
	assert.Equal(t, "alice", subs[0].Username)
}

func TestWebhookIgnoresNonMessageUpdates(t *testing.T) {
	srv, store := newWebhookServer(t)

	resp := postUpdate(t, srv, `{"edited_message": {"text": "hi"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	subs, err := store.ListAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	srv, _ := newWebhookServer(t)

	resp := postUpdate(t, srv, `not json at all`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

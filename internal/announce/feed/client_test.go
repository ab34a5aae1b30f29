package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDiscoverFiltersNonDocuments(t *testing.T) {
	payload := `{"data": [
		{"symbol": "RELIANCE", "sm_name": "Reliance Industries",
		 "an_dt": "28-Aug-2026 10:15:00", "attchmntFile": "https://archives.example.com/r1.pdf"},
		{"symbol": "TATASTEEL", "sm_name": "Tata Steel",
		 "an_dt": "28-Aug-2026 10:10:00", "attchmntFile": "https://archives.example.com/video.mp4"},
		{"symbol": "INFY", "sm_name": "Infosys",
		 "an_dt": "28-Aug-2026 10:05:00", "attchmntFile": ""},
		{"symbol": "WIPRO", "sm_name": "Wipro",
		 "an_dt": "28-Aug-2026 10:00:00", "attchmntFile": "https://archives.example.com/w1.PDF"}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := NewClient(nil, srv.URL, 5*time.Second)
	stubs, err := client.Discover(context.Background())
	require.NoError(t, err)

	// mp4 and missing attachments are gone; case-insensitive .pdf stays.
	require.Len(t, stubs, 2)
	assert.Equal(t, "RELIANCE", stubs[0].Symbol)
	assert.Equal(t, "28-Aug-2026 10:15:00", stubs[0].AnnouncementTime)
	assert.Equal(t, "https://archives.example.com/r1.pdf", stubs[0].SourceURL)
	assert.Equal(t, "WIPRO", stubs[1].Symbol)
}

func TestClientDiscoverPreservesFeedOrder(t *testing.T) {
	payload := `{"data": [
		{"symbol": "A", "sm_name": "A", "an_dt": "t2", "attchmntFile": "https://x/u2.pdf"},
		{"symbol": "B", "sm_name": "B", "an_dt": "t1", "attchmntFile": "https://x/u1.pdf"}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := NewClient(nil, srv.URL, 5*time.Second)
	stubs, err := client.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, stubs, 2)
	// Newest-first as delivered; reversal is the orchestrator's job.
	assert.Equal(t, "https://x/u2.pdf", stubs[0].SourceURL)
	assert.Equal(t, "https://x/u1.pdf", stubs[1].SourceURL)
}

func TestClientDiscoverRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(nil, srv.URL, 5*time.Second)
	_, err := client.Discover(context.Background())
	require.Error(t, err)
}

func TestDocumentFetcherExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.7 raw bytes"))
	}))
	defer srv.Close()

	fetcher, err := NewDocumentFetcher(nil, func(data []byte) (string, error) {
		assert.Equal(t, "%PDF-1.7 raw bytes", string(data))
		return "extracted text", nil
	}, 0)
	require.NoError(t, err)

	text, err := fetcher.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "extracted text", text)
}

func TestDocumentFetcherPropagatesExtractorFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("garbage"))
	}))
	defer srv.Close()

	fetcher, err := NewDocumentFetcher(nil, func([]byte) (string, error) {
		return "", errors.New("not a pdf")
	}, 0)
	require.NoError(t, err)

	_, err = fetcher.Extract(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestNewDocumentFetcherRequiresExtractor(t *testing.T) {
	_, err := NewDocumentFetcher(nil, nil, 0)
	require.Error(t, err)
}

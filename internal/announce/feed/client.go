package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client fetches the corporate-announcements feed. The feed endpoint
// rejects bare clients, so requests carry browser-mimicking headers; the
// heavier browser-automation fallback stays behind the Discoverer
// interface and out of this package.
type Client struct {
	httpClient *http.Client
	url        string
}

// NewClient builds a feed client for the given announcements endpoint.
func NewClient(httpClient *http.Client, url string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{httpClient: httpClient, url: url}
}

// feedItem mirrors the feed's wire schema.
type feedItem struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"sm_name"`
	Stamp      string `json:"an_dt"`
	Attachment string `json:"attchmntFile"`
}

type feedResponse struct {
	Data []feedItem `json:"data"`
}

// Discover returns the feed's current announcements, newest-first as
// delivered. Items without an extractable document attachment are
// filtered out here, before any dedup or enrichment work.
func (c *Client) Discover(ctx context.Context) ([]Stub, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	stubs := make([]Stub, 0, len(payload.Data))
	for _, item := range payload.Data {
		if !isDocumentLink(item.Attachment) {
			continue
		}
		stubs = append(stubs, Stub{
			Symbol:           strings.TrimSpace(item.Symbol),
			CompanyName:      strings.TrimSpace(item.Name),
			AnnouncementTime: item.Stamp,
			SourceURL:        item.Attachment,
		})
	}
	return stubs, nil
}

// isDocumentLink keeps only attachments the text extractor can handle.
func isDocumentLink(url string) bool {
	if url == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(url), ".pdf")
}

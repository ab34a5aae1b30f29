package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TextExtractor converts raw document bytes into plain text. The concrete
// PDF machinery is an injected capability; this package only moves bytes.
type TextExtractor func(data []byte) (string, error)

// DocumentFetcher implements Extractor by downloading the document and
// handing the bytes to a TextExtractor.
type DocumentFetcher struct {
	httpClient *http.Client
	extract    TextExtractor
	maxBytes   int64
}

// NewDocumentFetcher builds a document fetcher. maxBytes caps the download
// size; zero means the default of 32 MiB.
func NewDocumentFetcher(httpClient *http.Client, extract TextExtractor, maxBytes int64) (*DocumentFetcher, error) {
	if extract == nil {
		return nil, fmt.Errorf("text extractor is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &DocumentFetcher{httpClient: httpClient, extract: extract, maxBytes: maxBytes}, nil
}

// Extract downloads the document and returns its text. Any failure is
// per-item: the caller skips the announcement and continues the batch.
func (f *DocumentFetcher) Extract(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build document request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch document: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	text, err := f.extract(data)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}

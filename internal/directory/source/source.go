// Package source fetches raw listing data from the external exchanges and
// normalizes it into one canonical row shape. Each exchange publishes a
// different schema; the sync engine only ever sees Row.
package source

import (
	"context"

	"pravaha/internal/directory"
)

// Row is the canonical, source-tagged listing row. Numeric fields stay as
// the raw feed strings; the sync engine owns validation so a malformed
// value is counted as a rejection rather than dropped silently here.
type Row struct {
	Source    directory.Exchange
	ISIN      string
	ScripCode string
	Name      string
	Status    string
	Industry  string
	FaceValue string
	MarketCap string
	Symbol    string
	Segment   string
}

// Source is one external listing provider.
type Source interface {
	// Tag identifies the exchange this source feeds.
	Tag() directory.Exchange

	// Fetch returns every listing row the source currently publishes.
	Fetch(ctx context.Context) ([]Row, error)
}

// Browser-like headers; both exchanges reject requests without them.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36",
	"Accept-Language": "en-US,en;q=0.9",
}

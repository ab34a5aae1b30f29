// Package feed discovers candidate announcements from the exchange filing
// feed and turns their documents into text.
package feed

import "context"

// Stub is one discovered announcement candidate, before enrichment. The
// feed delivers stubs newest-first; the orchestrator reverses them.
type Stub struct {
	Symbol           string
	CompanyName      string
	AnnouncementTime string
	SourceURL        string
}

// Discoverer lists the feed's current announcements.
type Discoverer interface {
	Discover(ctx context.Context) ([]Stub, error)
}

// Extractor turns a document URL into plain text. A per-item failure
// returns an error; callers skip the item and move on.
type Extractor interface {
	Extract(ctx context.Context, sourceURL string) (string, error)
}

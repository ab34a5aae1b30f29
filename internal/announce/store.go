package announce

import "context"

// Store persists announcement records. Implementations must enforce
// source-URL uniqueness at the storage level; it is the correctness
// backstop when two cycles race on the same document.
type Store interface {
	// Insert writes a new record. Returns sentinel.ErrConflict when a
	// record with the same source URL already exists.
	Insert(ctx context.Context, record *Record) error

	// ExistsBySourceURL is the cheap dedup pre-check.
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)

	// ListRecent returns up to limit records, newest first, optionally
	// filtered by exact symbol.
	ListRecent(ctx context.Context, limit int, symbol string) ([]*Record, error)
}

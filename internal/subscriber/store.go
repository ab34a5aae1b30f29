package subscriber

import "context"

// Store persists subscribers. Channel ID uniqueness is enforced by the
// storage layer; Upsert makes opt-in idempotent.
type Store interface {
	// Upsert inserts the subscriber or refreshes the profile fields of an
	// existing row.
	Upsert(ctx context.Context, sub *Subscriber) error

	// Delete removes the subscriber. Returns false when no row existed;
	// that is not an error.
	Delete(ctx context.Context, channelID string) (bool, error)

	// ListAll returns every subscriber. The dispatcher calls this freshly
	// on every fanout so departures take effect immediately.
	ListAll(ctx context.Context) ([]*Subscriber, error)
}

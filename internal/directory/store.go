package directory

import "context"

// Store persists the company directory. Implementations must enforce ISIN
// uniqueness; Upsert keyed by ISIN is the only write path.
type Store interface {
	// Upsert inserts the company or replaces its mutable fields. The ISIN
	// row key never changes.
	Upsert(ctx context.Context, company *Company) error

	// FindByISIN returns sentinel.ErrNotFound when absent.
	FindByISIN(ctx context.Context, isin string) (*Company, error)

	// FindBySymbol returns the company matching the exchange symbol, or
	// sentinel.ErrNotFound.
	FindBySymbol(ctx context.Context, symbol string) (*Company, error)

	// List returns every stored company. Sync engines read this once per
	// cycle to reconcile against a complete view.
	List(ctx context.Context) ([]*Company, error)

	// Search matches a case-insensitive substring against name and symbol.
	Search(ctx context.Context, query string, limit int) ([]*Company, error)
}

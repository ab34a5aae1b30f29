package announce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pravaha/pkg/sentinel"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore persists announcements in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO announcements
			(source_url, symbol, company_name, announcement_time, summary, sentiment, classification, reasoning, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.SourceURL, record.Symbol, record.CompanyName,
		record.AnnouncementTime, record.Summary,
		string(record.Sentiment), string(record.Classification),
		record.Reasoning, record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("insert announcement %s: %w", record.SourceURL, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert announcement %s: %w", record.SourceURL, err)
	}
	return nil
}

func (s *PostgresStore) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM announcements WHERE source_url = $1)`, sourceURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check announcement %s: %w", sourceURL, err)
	}
	return exists, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int, symbol string) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT source_url, symbol, company_name, announcement_time, summary, sentiment, classification, reasoning, created_at
		FROM announcements
	`
	args := []any{limit}
	if symbol != "" {
		query += ` WHERE symbol = $2`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(
			&record.SourceURL, &record.Symbol, &record.CompanyName,
			&record.AnnouncementTime, &record.Summary,
			&record.Sentiment, &record.Classification,
			&record.Reasoning, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcements: %w", err)
	}
	return out, nil
}

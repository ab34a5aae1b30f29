package subscriber

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists subscribers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, sub *Subscriber) error {
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO subscribers (channel_id, username, first_name, last_name, is_bot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (channel_id) DO UPDATE SET
			username   = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			is_bot     = EXCLUDED.is_bot
	`
	_, err := s.db.ExecContext(ctx, query,
		sub.ChannelID, sub.Username, sub.FirstName, sub.LastName, sub.IsBot, createdAt)
	if err != nil {
		return fmt.Errorf("upsert subscriber %s: %w", sub.ChannelID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, channelID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM subscribers WHERE channel_id = $1`, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscriber %s: %w", channelID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subscriber %s: %w", channelID, err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, username, first_name, last_name, is_bot, created_at
		FROM subscribers
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []*Subscriber
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.ChannelID, &sub.Username, &sub.FirstName,
			&sub.LastName, &sub.IsBot, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return out, nil
}

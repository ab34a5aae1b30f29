// Package postgres opens the database connection and bootstraps the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the pipeline's table layout. The uniqueness constraints here
// are the correctness backstop for overlapping cycles, so they live with
// the code rather than in an external migration tool.
const Schema = `
CREATE TABLE IF NOT EXISTS companies (
    isin        TEXT PRIMARY KEY,
    scrip_code  TEXT NOT NULL,
    name        TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'Active',
    industry    TEXT NOT NULL DEFAULT '',
    face_value  DOUBLE PRECISION NOT NULL DEFAULT 0,
    market_cap  DOUBLE PRECISION NOT NULL DEFAULT 0,
    symbol      TEXT NOT NULL DEFAULT '',
    segment     TEXT NOT NULL DEFAULT '',
    listed_on   TEXT[] NOT NULL DEFAULT '{}',
    synced_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS companies_symbol_idx ON companies (symbol);
CREATE INDEX IF NOT EXISTS companies_name_idx ON companies (name);

CREATE TABLE IF NOT EXISTS announcements (
    source_url        TEXT PRIMARY KEY,
    symbol            TEXT NOT NULL,
    company_name      TEXT NOT NULL,
    announcement_time TEXT NOT NULL,
    summary           TEXT NOT NULL,
    sentiment         TEXT NOT NULL,
    classification    TEXT NOT NULL,
    reasoning         TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS announcements_symbol_idx ON announcements (symbol);
CREATE INDEX IF NOT EXISTS announcements_created_at_idx ON announcements (created_at DESC);

CREATE TABLE IF NOT EXISTS subscribers (
    channel_id  TEXT PRIMARY KEY,
    username    TEXT NOT NULL DEFAULT '',
    first_name  TEXT NOT NULL DEFAULT '',
    last_name   TEXT NOT NULL DEFAULT '',
    is_bot      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Bootstrap applies the schema. It is idempotent and safe to run at every
// process start.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pravaha/pkg/sentinel"
)

// PostgresStore persists companies in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const companyColumns = `isin, scrip_code, name, status, industry, face_value, market_cap, symbol, segment, listed_on, synced_at`

func (s *PostgresStore) Upsert(ctx context.Context, company *Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (isin) DO UPDATE SET
			scrip_code = EXCLUDED.scrip_code,
			name       = EXCLUDED.name,
			status     = EXCLUDED.status,
			industry   = EXCLUDED.industry,
			face_value = EXCLUDED.face_value,
			market_cap = EXCLUDED.market_cap,
			symbol     = EXCLUDED.symbol,
			segment    = EXCLUDED.segment,
			listed_on  = EXCLUDED.listed_on,
			synced_at  = EXCLUDED.synced_at
	`
	_, err := s.db.ExecContext(ctx, query,
		company.ISIN, company.ScripCode, company.Name, company.Status,
		company.Industry, company.FaceValue, company.MarketCap,
		company.Symbol, company.Segment, pq.Array(exchangeStrings(company.ListedOn)),
		company.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert company %s: %w", company.ISIN, err)
	}
	return nil
}

func (s *PostgresStore) FindByISIN(ctx context.Context, isin string) (*Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE isin = $1`, isin)
	return scanCompany(row)
}

func (s *PostgresStore) FindBySymbol(ctx context.Context, symbol string) (*Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE symbol = $1 LIMIT 1`, symbol)
	return scanCompany(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY isin`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()
	return collectCompanies(rows)
}

func (s *PostgresStore) Search(ctx context.Context, query string, limit int) ([]*Company, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE name ILIKE $1 OR symbol ILIKE $1
		ORDER BY name
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	defer rows.Close()
	return collectCompanies(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*Company, error) {
	var company Company
	var listedOn pq.StringArray
	err := row.Scan(
		&company.ISIN, &company.ScripCode, &company.Name, &company.Status,
		&company.Industry, &company.FaceValue, &company.MarketCap,
		&company.Symbol, &company.Segment, &listedOn, &company.SyncedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan company: %w", err)
	}
	company.ListedOn = exchangesFromStrings(listedOn)
	return &company, nil
}

func collectCompanies(rows *sql.Rows) ([]*Company, error) {
	var out []*Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return out, nil
}

func exchangeStrings(exchanges []Exchange) []string {
	out := make([]string, len(exchanges))
	for i, ex := range exchanges {
		out[i] = string(ex)
	}
	return out
}

func exchangesFromStrings(values []string) []Exchange {
	out := make([]Exchange, len(values))
	for i, v := range values {
		out[i] = Exchange(v)
	}
	return out
}

// Package sync reconciles external listing rows into the company directory.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"pravaha/internal/directory"
	"pravaha/internal/directory/source"
	"pravaha/internal/platform/metrics"
)

// Summary reports the outcome of one reconciliation pass.
type Summary struct {
	Inserted  int
	Updated   int
	Unchanged int
	Rejected  int
	Failed    int
}

// Engine reconciles fetched listing rows against the directory store.
// Reconcile is idempotent: running it twice with identical rows performs
// zero writes on the second pass.
type Engine struct {
	store   directory.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a logger for per-row diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock sets the sync timestamp source for testability.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New creates a sync Engine.
func New(store directory.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("directory store is required")
	}
	e := &Engine{
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Sync fetches the source's current listing and reconciles it. A fetch
// failure aborts the pass before any store access.
func (e *Engine) Sync(ctx context.Context, src source.Source) (Summary, error) {
	rows, err := src.Fetch(ctx)
	if err != nil {
		e.recordCycle(src.Tag(), "fetch_failed")
		return Summary{}, fmt.Errorf("fetch %s listing: %w", src.Tag(), err)
	}
	return e.Reconcile(ctx, src.Tag(), rows)
}

// Reconcile applies the fetched rows to the directory. The pre-read of the
// existing directory is all-or-nothing: a read failure aborts the pass with
// no writes, because reconciling against a partial view would resurrect
// stale values. Individual row failures never abort the batch.
func (e *Engine) Reconcile(ctx context.Context, tag directory.Exchange, rows []source.Row) (Summary, error) {
	existing, err := e.store.List(ctx)
	if err != nil {
		e.recordCycle(tag, "aborted")
		return Summary{}, fmt.Errorf("read directory before %s sync: %w", tag, err)
	}
	byISIN := make(map[string]*directory.Company, len(existing))
	for _, company := range existing {
		byISIN[company.ISIN] = company
	}

	var summary Summary
	now := e.clock()
	for _, row := range rows {
		outcome := e.reconcileRow(ctx, tag, row, byISIN, now)
		switch outcome {
		case rowInserted:
			summary.Inserted++
		case rowUpdated:
			summary.Updated++
		case rowUnchanged:
			summary.Unchanged++
		case rowRejected:
			summary.Rejected++
		case rowFailed:
			summary.Failed++
		}
		e.recordRow(tag, outcome)
	}

	e.recordCycle(tag, "ok")
	e.logger.Info("directory sync finished",
		"source", string(tag),
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"rejected", summary.Rejected,
		"failed", summary.Failed,
	)
	return summary, nil
}

type rowOutcome string

const (
	rowInserted  rowOutcome = "inserted"
	rowUpdated   rowOutcome = "updated"
	rowUnchanged rowOutcome = "unchanged"
	rowRejected  rowOutcome = "rejected"
	rowFailed    rowOutcome = "failed"
)

func (e *Engine) reconcileRow(ctx context.Context, tag directory.Exchange, row source.Row, byISIN map[string]*directory.Company, now time.Time) rowOutcome {
	parsed, err := validateRow(row)
	if err != nil {
		e.logger.Warn("rejecting listing row",
			"source", string(tag), "isin", row.ISIN, "symbol", row.Symbol, "error", err)
		return rowRejected
	}

	company, found := byISIN[row.ISIN]
	if !found {
		company = newCompany(tag, row, parsed, now)
		if err := e.store.Upsert(ctx, company); err != nil {
			e.logger.Error("insert company failed", "source", string(tag), "isin", row.ISIN, "error", err)
			return rowFailed
		}
		byISIN[row.ISIN] = company
		return rowInserted
	}

	if !needsUpdate(company, tag, parsed) {
		return rowUnchanged
	}

	company.FaceValue = parsed.faceValue
	if parsed.marketCap != nil {
		company.MarketCap = *parsed.marketCap
	}
	company.AddExchange(tag)
	company.SyncedAt = now
	if err := e.store.Upsert(ctx, company); err != nil {
		e.logger.Error("update company failed", "source", string(tag), "isin", row.ISIN, "error", err)
		return rowFailed
	}
	return rowUpdated
}

// parsedNumerics holds the validated numeric fields of one row. marketCap
// is nil when the source does not publish it.
type parsedNumerics struct {
	faceValue float64
	marketCap *float64
}

func validateRow(row source.Row) (parsedNumerics, error) {
	if row.ISIN == "" {
		return parsedNumerics{}, fmt.Errorf("missing ISIN")
	}
	if row.Symbol == "" && row.ScripCode == "" {
		return parsedNumerics{}, fmt.Errorf("missing symbol")
	}
	if row.Name == "" {
		return parsedNumerics{}, fmt.Errorf("missing company name")
	}

	faceValue, err := parseFinite(row.FaceValue)
	if err != nil {
		return parsedNumerics{}, fmt.Errorf("face value %q: %w", row.FaceValue, err)
	}

	parsed := parsedNumerics{faceValue: faceValue}
	if row.MarketCap != "" {
		marketCap, err := parseFinite(row.MarketCap)
		if err != nil {
			return parsedNumerics{}, fmt.Errorf("market cap %q: %w", row.MarketCap, err)
		}
		parsed.marketCap = &marketCap
	}
	return parsed, nil
}

func parseFinite(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return f, nil
}

func needsUpdate(company *directory.Company, tag directory.Exchange, parsed parsedNumerics) bool {
	if !company.ListedOnExchange(tag) {
		return true
	}
	if company.FaceValue != parsed.faceValue {
		return true
	}
	if parsed.marketCap != nil && company.MarketCap != *parsed.marketCap {
		return true
	}
	return false
}

func newCompany(tag directory.Exchange, row source.Row, parsed parsedNumerics, now time.Time) *directory.Company {
	symbol := row.Symbol
	if symbol == "" {
		symbol = row.ScripCode
	}
	status := row.Status
	if status == "" {
		status = "Active"
	}
	company := &directory.Company{
		ISIN:      row.ISIN,
		ScripCode: row.ScripCode,
		Name:      row.Name,
		Status:    status,
		Industry:  row.Industry,
		FaceValue: parsed.faceValue,
		Symbol:    symbol,
		Segment:   row.Segment,
		ListedOn:  []directory.Exchange{tag},
		SyncedAt:  now,
	}
	if parsed.marketCap != nil {
		company.MarketCap = *parsed.marketCap
	}
	return company
}

func (e *Engine) recordRow(tag directory.Exchange, outcome rowOutcome) {
	if e.metrics == nil {
		return
	}
	e.metrics.SyncRows.WithLabelValues(string(tag), string(outcome)).Inc()
}

func (e *Engine) recordCycle(tag directory.Exchange, outcome string) {
	if e.metrics == nil {
		return
	}
	e.metrics.SyncCycles.WithLabelValues(string(tag), outcome).Inc()
}

// Package ingest runs the announcement pipeline: discover stubs from the
// feed, extract document text, enrich, persist, fan out. One invocation
// is one cycle; cycles are independent and carry no state between runs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pravaha/internal/announce"
	"pravaha/internal/announce/feed"
	"pravaha/internal/directory"
	"pravaha/internal/enrich"
	"pravaha/internal/fanout"
	"pravaha/internal/platform/metrics"
	"pravaha/pkg/sentinel"
)

// CycleSummary tallies the item outcomes of one cycle.
type CycleSummary struct {
	Discovered int
	Skipped    int
	Processed  int
	Failed     int
}

// Orchestrator owns one end-to-end ingestion cycle.
type Orchestrator struct {
	discoverer feed.Discoverer
	extractor  feed.Extractor
	enricher   *enrich.Engine
	records    announce.Store
	companies  directory.Store
	dispatcher *fanout.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator. companies may be nil; the enrichment
// prompt then runs without directory context.
func New(
	discoverer feed.Discoverer,
	extractor feed.Extractor,
	enricher *enrich.Engine,
	records announce.Store,
	companies directory.Store,
	dispatcher *fanout.Dispatcher,
	opts ...Option,
) (*Orchestrator, error) {
	if discoverer == nil {
		return nil, fmt.Errorf("discoverer is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if enricher == nil {
		return nil, fmt.Errorf("enricher is required")
	}
	if records == nil {
		return nil, fmt.Errorf("announcement store is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	o := &Orchestrator{
		discoverer: discoverer,
		extractor:  extractor,
		enricher:   enricher,
		records:    records,
		companies:  companies,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RunCycle executes one cycle. Only discovery failure is a cycle error;
// every per-item failure is contained, counted, and logged so one bad
// document never starves the items behind it.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleSummary, error) {
	cycleID := uuid.NewString()
	started := o.now()
	logger := o.logger.With("cycle_id", cycleID)

	stubs, err := o.discoverer.Discover(ctx)
	if err != nil {
		return CycleSummary{}, fmt.Errorf("discover announcements: %w", err)
	}

	summary := CycleSummary{Discovered: len(stubs)}
	// The feed lists newest-first. Walking it backwards publishes in
	// announcement order, so subscribers read a chronological stream.
	for i := len(stubs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		switch o.processItem(ctx, logger, stubs[i]) {
		case itemProcessed:
			summary.Processed++
		case itemSkipped:
			summary.Skipped++
		case itemFailed:
			summary.Failed++
		}
	}

	elapsed := o.now().Sub(started)
	o.recordCycle(summary, elapsed)
	logger.Info("cycle complete",
		"discovered", summary.Discovered,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", elapsed)
	return summary, nil
}

type itemOutcome int

const (
	itemProcessed itemOutcome = iota
	itemSkipped
	itemFailed
)

func (o *Orchestrator) processItem(ctx context.Context, logger *slog.Logger, stub feed.Stub) itemOutcome {
	logger = logger.With("source_url", stub.SourceURL, "symbol", stub.Symbol)

	seen, err := o.records.ExistsBySourceURL(ctx, stub.SourceURL)
	if err != nil {
		logger.Error("dedup check failed", "error", err)
		return itemFailed
	}
	if seen {
		return itemSkipped
	}

	text, err := o.extractor.Extract(ctx, stub.SourceURL)
	if err != nil {
		logger.Warn("document extraction failed", "error", err)
		return itemFailed
	}

	result, err := o.enricher.Enrich(ctx, text, o.companyContext(ctx, stub.Symbol))
	if err != nil {
		logger.Warn("enrichment failed", "error", err)
		return itemFailed
	}

	record := &announce.Record{
		SourceURL:        stub.SourceURL,
		Symbol:           stub.Symbol,
		CompanyName:      stub.CompanyName,
		AnnouncementTime: stub.AnnouncementTime,
		Summary:          result.Summary,
		Sentiment:        result.Sentiment,
		Classification:   result.Classification,
		Reasoning:        result.Reasoning,
		CreatedAt:        o.now().UTC(),
	}
	if err := o.records.Insert(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Another cycle persisted this URL between our pre-check and
			// the insert. The record exists, so nothing was lost.
			logger.Info("record landed concurrently, skipping")
			return itemSkipped
		}
		logger.Error("record insert failed", "error", err)
		return itemFailed
	}

	o.dispatcher.Dispatch(ctx, record)
	return itemProcessed
}

// companyContext fetches directory data for the prompt. Best-effort: an
// unknown symbol or a directory outage just means a leaner prompt.
func (o *Orchestrator) companyContext(ctx context.Context, symbol string) *enrich.CompanyContext {
	if o.companies == nil || symbol == "" {
		return nil
	}
	company, err := o.companies.FindBySymbol(ctx, symbol)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			o.logger.Warn("company lookup failed", "symbol", symbol, "error", err)
		}
		return nil
	}
	return &enrich.CompanyContext{
		Name:      company.Name,
		Industry:  company.Industry,
		MarketCap: company.MarketCap,
	}
}

func (o *Orchestrator) recordCycle(summary CycleSummary, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.CycleItems.WithLabelValues("processed").Add(float64(summary.Processed))
	o.metrics.CycleItems.WithLabelValues("skipped").Add(float64(summary.Skipped))
	o.metrics.CycleItems.WithLabelValues("failed").Add(float64(summary.Failed))
	o.metrics.CycleDuration.Observe(elapsed.Seconds())
}

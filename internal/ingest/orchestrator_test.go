package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pravaha/internal/announce"
	"pravaha/internal/announce/feed"
	"pravaha/internal/directory"
	"pravaha/internal/enrich"
	"pravaha/internal/fanout"
	"pravaha/internal/subscriber"
)

type stubDiscoverer struct {
	stubs []feed.Stub
	err   error
}

func (d *stubDiscoverer) Discover(context.Context) ([]feed.Stub, error) {
	return d.stubs, d.err
}

type stubExtractor struct {
	failFor map[string]error
	texts   map[string]string
	order   []string
}

func (e *stubExtractor) Extract(_ context.Context, sourceURL string) (string, error) {
	e.order = append(e.order, sourceURL)
	if err, ok := e.failFor[sourceURL]; ok {
		return "", err
	}
	if text, ok := e.texts[sourceURL]; ok {
		return text, nil
	}
	return "document text for " + sourceURL, nil
}

type cannedAnalyzer struct {
	prompts []string
	err     error
}

func (a *cannedAnalyzer) Analyze(_ context.Context, prompt string) (string, error) {
	a.prompts = append(a.prompts, prompt)
	if a.err != nil {
		return "", a.err
	}
	return `{"summary":"Quarterly results filed","sentiment":"Neutral","classification":"Neutral","reasoning":"routine filing"}`, nil
}

func newTestEnricher(t *testing.T, analyzer enrich.Analyzer) *enrich.Engine {
	t.Helper()
	engine, err := enrich.New(analyzer, enrich.WithRetryPolicy(enrich.RetryPolicy{
		MaxAttempts:    1,
		InitialBackoff: 0,
		Factor:         1,
	}))
	require.NoError(t, err)
	return engine
}

func newTestDispatcher(t *testing.T) *fanout.Dispatcher {
	t.Helper()
	d, err := fanout.New(subscriber.NewInMemoryStore(), nil)
	require.NoError(t, err)
	return d
}

func stubFor(n int) feed.Stub {
	return feed.Stub{
		Symbol:           fmt.Sprintf("SYM%d", n),
		CompanyName:      fmt.Sprintf("Company %d", n),
		AnnouncementTime: fmt.Sprintf("2026-08-28 10:0%d:00", n),
		SourceURL:        fmt.Sprintf("https://example.com/doc%d.pdf", n),
	}
}

func TestRunCycleProcessesOldestFirst(t *testing.T) {
	// Feed order is newest-first: doc3, doc2, doc1.
	discoverer := &stubDiscoverer{stubs: []feed.Stub{stubFor(3), stubFor(2), stubFor(1)}}
	extractor := &stubExtractor{}
	records := announce.NewInMemoryStore()

	o, err := New(discoverer, extractor, newTestEnricher(t, &cannedAnalyzer{}), records, nil, newTestDispatcher(t))
	require.NoError(t, err)

	summary, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CycleSummary{Discovered: 3, Processed: 3}, summary)
	assert.Equal(t, []string{
		"https://example.com/doc1.pdf",
		"https://example.com/doc2.pdf",
		"https://example.com/doc3.pdf",
	}, extractor.order)
}

func TestRunCycleSkipsKnownURLs(t *testing.T) {
	discoverer := &stubDiscoverer{stubs: []feed.Stub{stubFor(2), stubFor(1)}}
	records := announce.NewInMemoryStore()
	require.NoError(t, records.Insert(context.Background(), &announce.Record{
		SourceURL:      "https://example.com/doc1.pdf",
		Symbol:         "SYM1",
		Summary:        "already here",
		Sentiment:      announce.SentimentNeutral,
		Classification: announce.ClassificationNeutral,
	}))
	extractor := &stubExtractor{}

	o, err := New(discoverer, extractor, newTestEnricher(t, &cannedAnalyzer{}), records, nil, newTestDispatcher(t))
	require.NoError(t, err)

	summary, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CycleSummary{Discovered: 2, Processed: 1, Skipped: 1}, summary)
	assert.Equal(t, []string{"https://example.com/doc2.pdf"}, extractor.order,
		"known URL never hits the document fetcher")
}

func TestRunCycleContainsPerItemFailures(t *testing.T) {
	discoverer := &stubDiscoverer{stubs: []feed.Stub{stubFor(3), stubFor(2), stubFor(1)}}
	extractor := &stubExtractor{failFor: map[string]error{
		"https://example.com/doc2.pdf": errors.New("document truncated"),
	}}
	records := announce.NewInMemoryStore()

	o, err := New(discoverer, extractor, newTestEnricher(t, &cannedAnalyzer{}), records, nil, newTestDispatcher(t))
	require.NoError(t, err)

	summary, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CycleSummary{Discovered: 3, Processed: 2, Failed: 1}, summary)

	stored, err := records.ListRecent(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Len(t, stored, 2, "items after the failure still persist")
}

func TestRunCycleCountsEnrichmentFailure(t *testing.T) {
	discoverer := &stubDiscoverer{stubs: []feed.Stub{stubFor(1)}}
	records := announce.NewInMemoryStore()

	o, err := New(discoverer, &stubExtractor{}, newTestEnricher(t, &cannedAnalyzer{err: errors.New("model overloaded")}), records, nil, newTestDispatcher(t))
	require.NoError(t, err)

	summary, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CycleSummary{Discovered: 1, Failed: 1}, summary)
}

func TestRunCycleDiscoveryFailureIsCycleError(t *testing.T) {
	discoverer := &stubDiscoverer{err: errors.New("feed unavailable")}

	o, err := New(discoverer, &stubExtractor{}, newTestEnricher(t, &cannedAnalyzer{}), announce.NewInMemoryStore(), nil, newTestDispatcher(t))
	require.NoError(t, err)

	_, err = o.RunCycle(context.Background())
	assert.ErrorContains(t, err, "discover announcements")
}

func TestRunCyclePersistedRecordCarriesStubFields(t *testing.T) {
	stub := stubFor(7)
	discoverer := &stubDiscoverer{stubs: []feed.Stub{stub}}
	records := announce.NewInMemoryStore()

	o, err := New(discoverer, &stubExtractor{}, newTestEnricher(t, &cannedAnalyzer{}), records, nil, newTestDispatcher(t))
	require.NoError(t, err)

	_, err = o.RunCycle(context.Background())
	require.NoError(t, err)

	stored, err := records.ListRecent(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	got := stored[0]
	assert.Equal(t, stub.SourceURL, got.SourceURL)
	assert.Equal(t, stub.Symbol, got.Symbol)
	assert.Equal(t, stub.CompanyName, got.CompanyName)
	assert.Equal(t, stub.AnnouncementTime, got.AnnouncementTime)
	assert.Equal(t, "Quarterly results filed", got.Summary)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRunCycleUsesCompanyContextWhenAvailable(t *testing.T) {
	stub := stubFor(1)
	discoverer := &stubDiscoverer{stubs: []feed.Stub{stub}}
	companies := directory.NewInMemoryStore()
	require.NoError(t, companies.Upsert(context.Background(), &directory.Company{
		ISIN:      "INE000A01001",
		Symbol:    "SYM1",
		Name:      "Company One Ltd",
		Industry:  "Chemicals",
		MarketCap: 1234.5,
	}))
	analyzer := &cannedAnalyzer{}

	o, err := New(discoverer, &stubExtractor{}, newTestEnricher(t, analyzer), announce.NewInMemoryStore(), companies, newTestDispatcher(t))
	require.NoError(t, err)

	_, err = o.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, analyzer.prompts, 1)
	assert.Contains(t, analyzer.prompts[0], "Chemicals")
}

func TestRunCycleUnknownSymbolStillProcesses(t *testing.T) {
	discoverer := &stubDiscoverer{stubs: []feed.Stub{stubFor(1)}}
	companies := directory.NewInMemoryStore()

	o, err := New(discoverer, &stubExtractor{}, newTestEnricher(t, &cannedAnalyzer{}), announce.NewInMemoryStore(), companies, newTestDispatcher(t))
	require.NoError(t, err)

	summary, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
}

func TestNewValidatesDependencies(t *testing.T) {
	enricher := newTestEnricher(t, &cannedAnalyzer{})
	dispatcher := newTestDispatcher(t)
	records := announce.NewInMemoryStore()

	_, err := New(nil, &stubExtractor{}, enricher, records, nil, dispatcher)
	assert.Error(t, err)
	_, err = New(&stubDiscoverer{}, nil, enricher, records, nil, dispatcher)
	assert.Error(t, err)
	_, err = New(&stubDiscoverer{}, &stubExtractor{}, nil, records, nil, dispatcher)
	assert.Error(t, err)
	_, err = New(&stubDiscoverer{}, &stubExtractor{}, enricher, nil, nil, dispatcher)
	assert.Error(t, err)
	_, err = New(&stubDiscoverer{}, &stubExtractor{}, enricher, records, nil, nil)
	assert.Error(t, err)
}

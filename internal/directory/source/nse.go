package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"pravaha/internal/directory"
)

// Default NSE archive locations for the main board and SME segment.
const (
	NSEEquityCSVURL = "https://nsearchives.nseindia.com/content/equities/EQUITY_L.csv"
	NSESMECSVURL    = "https://nsearchives.nseindia.com/emerge/corporates/content/SME_EQUITY_L.csv"
)

// NSESource downloads the NSE equity listing CSVs. The main board and SME
// segment ship as separate files; both are fetched on every sync.
type NSESource struct {
	client    *http.Client
	equityURL string
	smeURL    string
}

// NSEOption configures an NSESource.
type NSEOption func(*NSESource)

// WithNSEURLs overrides the CSV locations, mainly for tests.
func WithNSEURLs(equityURL, smeURL string) NSEOption {
	return func(s *NSESource) {
		s.equityURL = equityURL
		s.smeURL = smeURL
	}
}

// NewNSESource builds the NSE listing source.
func NewNSESource(client *http.Client, opts ...NSEOption) *NSESource {
	if client == nil {
		client = http.DefaultClient
	}
	s := &NSESource{
		client:    client,
		equityURL: NSEEquityCSVURL,
		smeURL:    NSESMECSVURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NSESource) Tag() directory.Exchange {
	return directory.ExchangeNSE
}

// Fetch downloads both CSV segments concurrently and returns the combined
// rows. A failure of either segment fails the fetch; the sync cycle must
// never reconcile against a partial listing.
func (s *NSESource) Fetch(ctx context.Context) ([]Row, error) {
	var (
		mu   sync.Mutex
		rows []Row
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, segment := range []struct {
		url     string
		segment string
	}{
		{s.equityURL, "Equity"},
		{s.smeURL, "SME"},
	} {
		g.Go(func() error {
			parsed, err := s.fetchCSV(ctx, segment.url, segment.segment)
			if err != nil {
				return fmt.Errorf("fetch %s listing: %w", segment.segment, err)
			}
			mu.Lock()
			rows = append(rows, parsed...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *NSESource) fetchCSV(ctx context.Context, url, segment string) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Referer", "https://www.nseindia.com/market-data/securities-available-for-trading")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download csv: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download csv: unexpected status %d", resp.StatusCode)
	}

	return parseListingCSV(resp.Body, segment)
}

// parseListingCSV maps the NSE CSV into canonical rows. Headers are
// normalized before lookup because the archive files mix spacing styles.
func parseListingCSV(r io.Reader, segment string) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[normalizeHeader(name)] = i
	}

	field := func(record []string, key string) string {
		i, ok := index[key]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		symbol := field(record, "SYMBOL")
		rowSegment := segment
		if field(record, "SERIES") == "SM" {
			rowSegment = "SME"
		}
		rows = append(rows, Row{
			Source:    directory.ExchangeNSE,
			ISIN:      field(record, "ISIN_NUMBER"),
			ScripCode: symbol,
			Name:      field(record, "NAME_OF_COMPANY"),
			Status: "Active",
			// The listing CSVs carry no market capitalization; leave it
			// absent so the sync engine neither diffs nor overwrites it.
			FaceValue: field(record, "FACE_VALUE"),
			MarketCap: "",
			Symbol:    symbol,
			Segment:   rowSegment,
		})
	}
	return rows, nil
}

func normalizeHeader(name string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range cleaned {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

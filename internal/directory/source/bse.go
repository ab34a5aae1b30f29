package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pravaha/internal/directory"
)

// BSEScripURL lists every active equity scrip as JSON.
const BSEScripURL = "https://api.bseindia.com/BseIndiaAPI/api/ListofScripData/w?Group=&Scripcode=&industry=&segment=Equity&status=Active"

// BSESource fetches the BSE active-scrip listing API.
type BSESource struct {
	client *http.Client
	url    string
}

// BSEOption configures a BSESource.
type BSEOption func(*BSESource)

// WithBSEURL overrides the API location, mainly for tests.
func WithBSEURL(url string) BSEOption {
	return func(s *BSESource) {
		s.url = url
	}
}

// NewBSESource builds the BSE listing source.
func NewBSESource(client *http.Client, opts ...BSEOption) *BSESource {
	if client == nil {
		client = http.DefaultClient
	}
	s := &BSESource{client: client, url: BSEScripURL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BSESource) Tag() directory.Exchange {
	return directory.ExchangeBSE
}

// rawValue decodes a JSON number, string, or null into its raw text. The
// BSE API mixes quoting styles per scrip, and a malformed value must reach
// the sync engine as-is so it is counted as a rejected row there instead
// of failing the whole fetch.
type rawValue string

func (r *rawValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = rawValue(s)
		return nil
	}
	text := string(data)
	if text == "null" {
		text = ""
	}
	*r = rawValue(text)
	return nil
}

// bseScrip mirrors the BSE API schema.
type bseScrip struct {
	ScripCode  rawValue `json:"SCRIP_CD"`
	ScripName  string   `json:"Scrip_Name"`
	Status     string   `json:"Status"`
	Group      string   `json:"GROUP"`
	FaceValue  rawValue `json:"FACE_VALUE"`
	ISIN       string   `json:"ISIN_NUMBER"`
	Industry   string   `json:"INDUSTRY"`
	ScripID    string   `json:"scrip_id"`
	Segment    string   `json:"Segment"`
	IssuerName string   `json:"Issuer_Name"`
	MarketCap  rawValue `json:"Mktcap"`
}

func (s *BSESource) Fetch(ctx context.Context) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", "https://www.bseindia.com")
	req.Header.Set("Referer", "https://www.bseindia.com/")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch scrip listing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch scrip listing: unexpected status %d", resp.StatusCode)
	}

	var scrips []bseScrip
	if err := json.NewDecoder(resp.Body).Decode(&scrips); err != nil {
		return nil, fmt.Errorf("decode scrip listing: %w", err)
	}

	rows := make([]Row, 0, len(scrips))
	for _, scrip := range scrips {
		rows = append(rows, Row{
			Source:    directory.ExchangeBSE,
			ISIN:      strings.TrimSpace(scrip.ISIN),
			ScripCode: string(scrip.ScripCode),
			Name:      strings.TrimSpace(scrip.ScripName),
			Status:    scrip.Status,
			Industry:  scrip.Industry,
			FaceValue: string(scrip.FaceValue),
			MarketCap: string(scrip.MarketCap),
			Symbol:    strings.TrimSpace(scrip.ScripID),
			Segment:   scrip.Segment,
		})
	}
	return rows, nil
}

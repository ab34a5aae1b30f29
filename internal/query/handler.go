// Package query exposes the read-only HTTP API over stored companies and
// announcements.
package query

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pravaha/internal/announce"
	"pravaha/internal/directory"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler serves the query endpoints.
type Handler struct {
	announcements announce.Store
	companies     directory.Store
	logger        *slog.Logger
}

// NewHandler creates the query handler.
func NewHandler(announcements announce.Store, companies directory.Store, logger *slog.Logger) *Handler {
	return &Handler{announcements: announcements, companies: companies, logger: logger}
}

// Register mounts the query routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/announcements", h.listAnnouncements)
	r.Get("/api/companies/search", h.searchCompanies)
}

func (h *Handler) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r.URL.Query().Get("limit"))
	if !ok {
		return
	}
	symbol := r.URL.Query().Get("symbol")

	records, err := h.announcements.ListRecent(r.Context(), limit, symbol)
	if err != nil {
		h.logger.Error("announcement listing failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"count":         len(records),
		"announcements": records,
	})
}

type companyResponse struct {
	ISIN      string   `json:"isin"`
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Industry  string   `json:"industry,omitempty"`
	Segment   string   `json:"segment,omitempty"`
	FaceValue float64  `json:"face_value"`
	MarketCap float64  `json:"market_cap"`
	ListedOn  []string `json:"listed_on"`
}

func (h *Handler) searchCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}
	limit, ok := parseLimit(w, r.URL.Query().Get("limit"))
	if !ok {
		return
	}

	companies, err := h.companies.Search(r.Context(), q, limit)
	if err != nil {
		h.logger.Error("company search failed", "query", q, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		listedOn := make([]string, 0, len(c.ListedOn))
		for _, ex := range c.ListedOn {
			listedOn = append(listedOn, string(ex))
		}
		out = append(out, companyResponse{
			ISIN:      c.ISIN,
			Symbol:    c.Symbol,
			Name:      c.Name,
			Industry:  c.Industry,
			Segment:   c.Segment,
			FaceValue: c.FaceValue,
			MarketCap: c.MarketCap,
			ListedOn:  listedOn,
		})
	}

	writeJSON(w, map[string]any{
		"count":     len(out),
		"companies": out,
	})
}

// parseLimit reads the limit parameter, defaulting and capping it. A
// malformed or non-positive value is the caller's error, not ours.
func parseLimit(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

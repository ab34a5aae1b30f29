package directory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"pravaha/pkg/sentinel"
)

// InMemoryStore is a map-backed Store for tests and local runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	companies map[string]*Company
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{companies: make(map[string]*Company)}
}

func (s *InMemoryStore) Upsert(_ context.Context, company *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *company
	copied.ListedOn = append([]Exchange(nil), company.ListedOn...)
	s.companies[company.ISIN] = &copied
	return nil
}

func (s *InMemoryStore) FindByISIN(_ context.Context, isin string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	company, ok := s.companies[isin]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCompany(company), nil
}

func (s *InMemoryStore) FindBySymbol(_ context.Context, symbol string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, company := range s.companies {
		if company.Symbol == symbol {
			return cloneCompany(company), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Company, 0, len(s.companies))
	for _, company := range s.companies {
		out = append(out, cloneCompany(company))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISIN < out[j].ISIN })
	return out, nil
}

func (s *InMemoryStore) Search(_ context.Context, query string, limit int) ([]*Company, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Company
	for _, company := range s.companies {
		if strings.Contains(strings.ToLower(company.Name), query) ||
			strings.Contains(strings.ToLower(company.Symbol), query) {
			out = append(out, cloneCompany(company))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneCompany(company *Company) *Company {
	copied := *company
	copied.ListedOn = append([]Exchange(nil), company.ListedOn...)
	return &copied
}

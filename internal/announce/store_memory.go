package announce

import (
	"context"
	"sort"
	"sync"

	"pravaha/pkg/sentinel"
)

// InMemoryStore is a map-backed Store for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

func (s *InMemoryStore) Insert(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.SourceURL]; exists {
		return sentinel.ErrConflict
	}
	copied := *record
	s.records[record.SourceURL] = &copied
	return nil
}

func (s *InMemoryStore) ExistsBySourceURL(_ context.Context, sourceURL string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.records[sourceURL]
	return exists, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int, symbol string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, record := range s.records {
		if symbol != "" && record.Symbol != symbol {
			continue
		}
		copied := *record
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SourceURL < out[j].SourceURL
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

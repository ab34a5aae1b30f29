package subscriber

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a map-backed Store for tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{subs: make(map[string]*Subscriber)}
}

func (s *InMemoryStore) Upsert(_ context.Context, sub *Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sub
	if existing, ok := s.subs[sub.ChannelID]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	s.subs[sub.ChannelID] = &copied
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[channelID]; !ok {
		return false, nil
	}
	delete(s.subs, channelID)
	return true, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		copied := *sub
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}

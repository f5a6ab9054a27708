package subscription

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests. It counts saves so tests
// can assert that an unchanged cycle writes nothing.
type MemoryStore struct {
	mu    sync.Mutex
	subs  map[string]Subscription
	saves int
}

// NewMemoryStore builds a store seeded with the given map (may be nil).
func NewMemoryStore(seed map[string]Subscription) *MemoryStore {
	subs := make(map[string]Subscription, len(seed))
	for k, v := range seed {
		subs[k] = v
	}
	return &MemoryStore{subs: subs}
}

func (s *MemoryStore) LoadAll(ctx context.Context) (map[string]Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Subscription, len(s.subs))
	for k, v := range s.subs {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) SaveAll(ctx context.Context, subs map[string]Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make(map[string]Subscription, len(subs))
	for k, v := range subs {
		s.subs[k] = v
	}
	s.saves++
	return nil
}

// SaveCount reports how many times SaveAll has been called.
func (s *MemoryStore) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

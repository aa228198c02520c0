package warncount

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type MemStore struct {
	// serializes read-modify-write in Increment; the LRU itself is already safe for concurrent use
	lk   sync.Mutex
	Data *expirable.LRU[string, int]
}

var _ Store = (*MemStore)(nil)

// In-process store, mostly for tests and single-node deployments. Least recently used counters are evicted past 'capacity'.
func NewMemStore(capacity int, ttl time.Duration) *MemStore {
	return &MemStore{
		Data: expirable.NewLRU[string, int](capacity, nil, ttl),
	}
}

func (s *MemStore) Increment(ctx context.Context, key string) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()

	v, _ := s.Data.Get(key)
	v = v + 1
	// re-adding resets the entry expiry
	s.Data.Add(key, v)
	return v, nil
}

func (s *MemStore) Get(ctx context.Context, key string) (int, error) {
	v, ok := s.Data.Get(key)
	if !ok {
		return 0, nil
	}
	return v, nil
}

func (s *MemStore) Reset(ctx context.Context, key string) error {
	s.lk.Lock()
	defer s.lk.Unlock()

	s.Data.Remove(key)
	return nil
}

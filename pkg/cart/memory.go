package cart

import (
	"context"
	"sync"
	"time"
)

type memoryCart struct {
	entries  []Entry
	lastSeen time.Time
}

// MemoryStore keeps carts in process. With a positive ttl a cart expires after
// ttl without being loaded or saved, mirroring the sliding TTL of the Redis
// store. Carts are lost on restart and not shared between replicas.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*memoryCart
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		carts: make(map[string]*memoryCart),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) expired(c *memoryCart, now time.Time) bool {
	return s.ttl > 0 && now.Sub(c.lastSeen) >= s.ttl
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return []Entry{}, nil
	}
	now := s.now()
	if s.expired(c, now) {
		delete(s.carts, sessionID)
		return []Entry{}, nil
	}
	c.lastSeen = now
	return append([]Entry{}, c.entries...), nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(entries) == 0 {
		delete(s.carts, sessionID)
		return nil
	}
	s.carts[sessionID] = &memoryCart{
		entries:  append([]Entry(nil), entries...),
		lastSeen: s.now(),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

// Sweep drops expired carts and returns how many it removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, c := range s.carts {
		if s.expired(c, now) {
			delete(s.carts, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

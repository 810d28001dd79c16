package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pharmabill/backend/internal/domain/shared"
)

// record is a reserved or completed idempotency key
type record struct {
	payload   []byte
	completed bool
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	records   map[string]record
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
// It starts a background goroutine to clean up expired entries
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(5*time.Minute, time.Now)
}

func newInMemoryIdempotencyStore(cleanupEvery time.Duration, now func() time.Time) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		records:  make(map[string]record),
		now:      now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop(cleanupEvery)

	return store
}

// Reserve claims key for ttl. Returns false if a live record already exists.
func (s *InMemoryIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if r, ok := s.records[key]; ok && now.Before(r.expiresAt) {
		return false, nil
	}
	s.records[key] = record{expiresAt: now.Add(ttl)}
	return true, nil
}

// Complete stores the result payload and extends the key's lifetime to ttl
func (s *InMemoryIdempotencyStore) Complete(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.records[key] = record{payload: stored, completed: true, expiresAt: s.now().Add(ttl)}
	return nil
}

// Result returns the payload of a completed key
func (s *InMemoryIdempotencyStore) Result(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[key]
	if !ok || !r.completed || !s.now().Before(r.expiresAt) {
		return nil, false, nil
	}
	out := make([]byte, len(r.payload))
	copy(out, r.payload)
	return out, true, nil
}

// Release drops an in-flight reservation. Completed keys are kept.
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[key]; ok && !r.completed {
		delete(s.records, key)
	}
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop(every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired records from the store
func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, r := range s.records {
		if !now.Before(r.expiresAt) {
			delete(s.records, key)
		}
	}
}

// Size returns the number of records in the store (for testing/monitoring)
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

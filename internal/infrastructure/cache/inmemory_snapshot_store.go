package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhk/storefront/internal/domain/cart"
)

// snapshotEntry is a stored cart snapshot with its expiration
type snapshotEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

func (e snapshotEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemorySnapshotStore implements cart.SnapshotStore using an in-memory map.
// Snapshots do not survive a restart and are not shared between instances.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	entries   map[string]snapshotEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySnapshotStore creates a new in-memory snapshot store.
// A positive ttl expires snapshots not saved within that window; a background
// goroutine removes expired entries.
func NewInMemorySnapshotStore(ttl time.Duration) *InMemorySnapshotStore {
	store := &InMemorySnapshotStore{
		entries:  make(map[string]snapshotEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Load returns the snapshot stored under key
func (s *InMemorySnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, cart.ErrSnapshotNotFound
	}
	return append([]byte(nil), e.data...), nil
}

// Save stores data under key, replacing any previous snapshot
func (s *InMemorySnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	e := snapshotEntry{data: append([]byte(nil), data...)}
	if s.ttl > 0 {
		e.expiresAt = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemorySnapshotStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemorySnapshotStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
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

func (s *InMemorySnapshotStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of stored snapshots (for testing/monitoring)
func (s *InMemorySnapshotStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ cart.SnapshotStore = (*InMemorySnapshotStore)(nil)

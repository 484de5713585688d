package admission

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryEntry one live counter window
type memoryEntry struct {
	count    int64
	expireAt time.Time
}

// MemoryStore in-process counter store for tests and single-instance
// deployments. Atomicity comes from the mutex; expired entries are skipped
// lazily and swept by a background loop.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	closed  bool
	done    chan struct{}
}

// NewMemoryStore creates a memory counter store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop(time.Minute)
	return s
}

// CheckAndIncr increments the counter, starting a new window if needed
func (s *MemoryStore) CheckAndIncr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, ErrStoreClosed
	}

	entry, ok := s.entries[key]
	if !ok || now.After(entry.expireAt) {
		entry = &memoryEntry{count: 0, expireAt: now.Add(window)}
		s.entries[key] = entry
	}
	entry.count++

	return entry.count, entry.expireAt.Sub(now), nil
}

// Peek reads count and TTL without mutating
func (s *MemoryStore) Peek(ctx context.Context, key string) (int64, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, ErrStoreClosed
	}

	entry, ok := s.entries[key]
	if !ok || now.After(entry.expireAt) {
		return 0, 0, nil
	}
	return entry.count, entry.expireAt.Sub(now), nil
}

// Reset deletes the given counters
func (s *MemoryStore) Reset(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

// ResetPrefix deletes every counter whose key starts with prefix
func (s *MemoryStore) ResetPrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

// Close stops the cleanup loop
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// cleanupLoop sweeps expired windows
func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.expireAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

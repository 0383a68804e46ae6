// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csrf

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token   string
	expires time.Time
}

// MemoryStore is a process-local Store. Tokens do not survive a restart
// and are not shared between replicas; use RedisStore for that.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, session, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.entries[session] = memoryEntry{token: token, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, session string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[session]
	if !ok || !s.now().Before(e.expires) {
		return "", ErrNoToken
	}
	return e.token, nil
}

// sweep drops expired entries. Called on writes only, so the map stays
// bounded by the number of sessions issued within one TTL.
func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}

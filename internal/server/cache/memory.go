package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
)

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// MemoryStore is a process-local session store. Sessions do not survive a
// restart and are not shared between instances.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Set(_ context.Context, sid string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sid] = memoryEntry{
		payload: append([]byte(nil), payload...),
		expires: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sid string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[sid]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expires) {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), e.payload...), nil
}

func (s *MemoryStore) Del(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}

// DeleteExpired drops expired entries and returns how many were removed.
func (s *MemoryStore) DeleteExpired(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for sid, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, sid)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

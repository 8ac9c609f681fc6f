package session

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/concierge/internal/chat"
)

type memoryEntry struct {
	conv         chat.Conversation
	lastAccessed time.Time
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore returns a process-local store. A ttl of zero keeps
// sessions until Cleanup or Delete removes them.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *memoryStore) Get(ctx context.Context, id string) (chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return chat.Conversation{}, ErrNotFound
	}
	now := s.now()
	if s.ttl > 0 && now.Sub(e.lastAccessed) > s.ttl {
		delete(s.sessions, id)
		return chat.Conversation{}, ErrNotFound
	}
	e.lastAccessed = now
	return e.conv, nil
}

func (s *memoryStore) Save(ctx context.Context, id string, conv chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &memoryEntry{conv: conv, lastAccessed: s.now()}
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memoryStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = s.ttl
	}
	if maxAge <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if now.Sub(e.lastAccessed) > maxAge {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

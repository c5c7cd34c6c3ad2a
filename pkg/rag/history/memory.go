package history

import (
	"context"
	"sync"
	"time"

	"announce-qa-be/pkg/llm"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps conversation history in-process with expiry. Suitable
// for single-instance deployments and tests.
type MemoryStore struct {
	cache *cache.Cache
	mu    sync.Mutex
}

var _ Store = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	// Conversations idle for an hour expire; purge sweep every 10 minutes.
	return &MemoryStore{
		cache: cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (s *MemoryStore) Load(_ context.Context, conversationID string) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x, found := s.cache.Get(conversationID); found {
		stored := x.([]llm.Message)
		out := make([]llm.Message, len(stored))
		copy(out, stored)
		return out, nil
	}
	return nil, nil
}

func (s *MemoryStore) Append(_ context.Context, conversationID string, messages ...llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored []llm.Message
	if x, found := s.cache.Get(conversationID); found {
		stored = x.([]llm.Message)
	}
	stored = append(stored, messages...)
	s.cache.Set(conversationID, stored, cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(conversationID)
	return nil
}

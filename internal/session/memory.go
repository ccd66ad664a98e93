package session

import (
	"context"
	"sync"
	"time"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
)

// MemoryStore keeps history in process memory. Each session carries its
// own lock; the outer lock only guards the session table, so traffic on
// one session never stalls another.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*memorySession
	maxMessages int
}

type memorySession struct {
	mu       sync.Mutex
	messages []models.Message
}

func NewMemoryStore(maxMessages int) *MemoryStore {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &MemoryStore{
		sessions:    make(map[string]*memorySession),
		maxMessages: maxMessages,
	}
}

func (m *MemoryStore) session(sessionID string) *memorySession {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[sessionID]; ok {
		return s
	}
	s = &memorySession{}
	m.sessions[sessionID] = s
	return s
}

func (m *MemoryStore) GetHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]models.Message, len(s.messages))
	copy(history, s.messages)
	return history, nil
}

func (m *MemoryStore) Append(ctx context.Context, sessionID string, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	now := time.Now()
	for i := range messages {
		if messages[i].Timestamp.IsZero() {
			messages[i].Timestamp = now
		}
	}

	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, messages...)
	if overflow := len(s.messages) - m.maxMessages; overflow > 0 {
		s.messages = append([]models.Message(nil), s.messages[overflow:]...)
	}
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, sessionID string) (int, error) {
	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.messages)
	s.messages = nil
	return removed, nil
}

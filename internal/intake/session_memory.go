package intake

import (
	"context"
	"sync"
)

// MemorySessions keeps dialogue state in process memory.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[int64]*Session)}
}

func (s *MemorySessions) Get(_ context.Context, chatID int64) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[chatID]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (s *MemorySessions) Put(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ChatID] = &cp
	return nil
}

func (s *MemorySessions) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}

package memory

import (
	"sync"

	"math-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Engine
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Engine),
	}
}

func (s *SessionStore) GetOrCreate(playerID string, create func() *app.Engine) *app.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if engine, ok := s.sessions[playerID]; ok {
		return engine
	}
	engine := create()
	s.sessions[playerID] = engine
	return engine
}

func (s *SessionStore) Get(playerID string) (*app.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engine, ok := s.sessions[playerID]
	return engine, ok
}

func (s *SessionStore) Delete(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, playerID)
}

// Len reports how many players currently hold a session.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

package redis

import (
	"context"
	"sync"
	"time"

	"math-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Engines stay in a local map; game state is never written to Redis.
//   - Redis only carries a liveness marker per player so other instances and
//     operators can see who is connected. Every lookup refreshes it, so a
//     game that outlives the TTL keeps its marker.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Engine
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Engine),
	}
}

func (s *SessionStore) GetOrCreate(playerID string, create func() *app.Engine) *app.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if engine, ok := s.sessions[playerID]; ok {
		s.touch(playerID)
		return engine
	}
	engine := create()
	s.sessions[playerID] = engine
	s.touch(playerID)
	return engine
}

func (s *SessionStore) Get(playerID string) (*app.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engine, ok := s.sessions[playerID]
	if ok {
		s.touch(playerID)
	}
	return engine, ok
}

func (s *SessionStore) Delete(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[playerID]; !ok {
		return
	}
	delete(s.sessions, playerID)
	_ = s.client.Del(context.Background(), s.key(playerID)).Err()
}

// best-effort liveness marker
func (s *SessionStore) touch(playerID string) {
	_ = s.client.Set(context.Background(), s.key(playerID), "1", s.ttl).Err()
}

func (s *SessionStore) key(playerID string) string {
	return "math:session:" + playerID
}

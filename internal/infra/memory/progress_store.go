package memory

import (
	"context"
	"sync"

	"math-quiz-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressRepository.
// Levels default to 0 for unknown players and operations.
type ProgressStore struct {
	mu     sync.RWMutex
	levels map[string]map[domain.Operation]domain.Level
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{levels: make(map[string]map[domain.Operation]domain.Level)}
}

func (s *ProgressStore) LoadLevel(_ context.Context, playerID string, op domain.Operation) (domain.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels[playerID][op], nil
}

func (s *ProgressStore) SaveLevel(_ context.Context, playerID string, op domain.Operation, level domain.Level) error {
	if !level.Valid() {
		return domain.ErrInvalidLevel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byOp, ok := s.levels[playerID]
	if !ok {
		byOp = make(map[domain.Operation]domain.Level)
		s.levels[playerID] = byOp
	}
	byOp[op] = level
	return nil
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"math-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// ScoreStore keeps final scores in process memory (useful for tests/demos).
type ScoreStore struct {
	mu     sync.RWMutex
	scores []domain.ScoreEntry
	now    func() time.Time
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{now: time.Now}
}

func (s *ScoreStore) SaveScore(_ context.Context, entry domain.ScoreEntry) (domain.ScoreEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	s.mu.Lock()
	s.scores = append(s.scores, entry)
	s.mu.Unlock()
	return entry, nil
}

// TopScores orders by score descending, then by who got there first.
func (s *ScoreStore) TopScores(_ context.Context, op domain.Operation, limit int) ([]domain.ScoreEntry, error) {
	s.mu.RLock()
	entries := make([]domain.ScoreEntry, 0, len(s.scores))
	for _, e := range s.scores {
		if e.Operation == op {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *ScoreStore) DeleteUserScores(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.scores[:0]
	var removed int64
	for _, e := range s.scores {
		if e.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.scores = kept
	return removed, nil
}

package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultLeaderboardSize matches the number of rows the game shows.
const DefaultLeaderboardSize = 10

// LeaderboardRepository caches leaderboards with TTL to avoid repeated DB hits.
type LeaderboardRepository struct {
	scores app.ScoreStore
	limit  int
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[domain.Operation]cachedLeaderboard
}

type cachedLeaderboard struct {
	board     domain.Leaderboard
	expiresAt time.Time
}

func NewLeaderboardRepository(scores app.ScoreStore, limit int, ttl time.Duration) *LeaderboardRepository {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	return &LeaderboardRepository{
		scores: scores,
		limit:  limit,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Operation]cachedLeaderboard),
	}
}

func (r *LeaderboardRepository) GetLeaderboard(ctx context.Context, op domain.Operation) (domain.Leaderboard, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[op]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.board, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(string(op), func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[op]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.board, nil
		}
		r.mu.RUnlock()

		entries, err := r.scores.TopScores(ctx, op, r.limit)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		board := domain.Leaderboard{Operation: op, Entries: entries, UpdatedAt: now}

		r.mu.Lock()
		r.cache[op] = cachedLeaderboard{
			board:     board,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return board, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// Invalidate drops the cached board so the next read reloads it.
func (r *LeaderboardRepository) Invalidate(_ context.Context, op domain.Operation) {
	r.mu.Lock()
	delete(r.cache, op)
	r.mu.Unlock()
}

func (r *LeaderboardRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

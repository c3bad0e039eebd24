package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LeaderboardRepository caches leaderboards in Redis and falls back to the score store on cache miss.
// Boards are stored as JSON: SET math:leaderboard:{operation} {json} EX ttl
type LeaderboardRepository struct {
	client *redis.Client
	scores app.ScoreStore
	limit  int
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardRepository(client *redis.Client, scores app.ScoreStore, limit int, ttl time.Duration) *LeaderboardRepository {
	if limit <= 0 {
		limit = 10
	}
	return &LeaderboardRepository{
		client: client,
		scores: scores,
		limit:  limit,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *LeaderboardRepository) GetLeaderboard(ctx context.Context, op domain.Operation) (domain.Leaderboard, error) {
	key := r.key(op)
	if board, ok := r.cached(ctx, key); ok {
		return board, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if board, ok := r.cached(ctx, key); ok {
			return board, nil
		}

		entries, err := r.scores.TopScores(ctx, op, r.limit)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		board := domain.Leaderboard{Operation: op, Entries: entries, UpdatedAt: time.Now().UTC()}

		if raw, err := json.Marshal(board); err == nil {
			if err := r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err(); err != nil {
				log.Printf("cache leaderboard %s: %v", op, err)
			}
		}
		return board, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// Invalidate removes the cached board; failures only delay freshness until TTL.
func (r *LeaderboardRepository) Invalidate(ctx context.Context, op domain.Operation) {
	if err := r.client.Del(ctx, r.key(op)).Err(); err != nil {
		log.Printf("invalidate leaderboard %s: %v", op, err)
	}
}

func (r *LeaderboardRepository) cached(ctx context.Context, key string) (domain.Leaderboard, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Leaderboard{}, false
	}
	var board domain.Leaderboard
	if err := json.Unmarshal(raw, &board); err != nil {
		return domain.Leaderboard{}, false
	}
	return board, true
}

func (r *LeaderboardRepository) key(op domain.Operation) string {
	return "math:leaderboard:" + string(op)
}

func (r *LeaderboardRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

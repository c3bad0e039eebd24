package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"math-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProgressStore keeps difficulty progress in one hash per player:
// HSET math:progress:{playerID} {operation} {level}
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) LoadLevel(ctx context.Context, playerID string, op domain.Operation) (domain.Level, error) {
	raw, err := s.client.HGet(ctx, s.key(playerID), string(op)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load progress: %w", err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse progress %q: %w", raw, err)
	}
	level := domain.Level(n)
	if !level.Valid() {
		return 0, domain.ErrInvalidLevel
	}
	return level, nil
}

func (s *ProgressStore) SaveLevel(ctx context.Context, playerID string, op domain.Operation, level domain.Level) error {
	if !level.Valid() {
		return domain.ErrInvalidLevel
	}
	if err := s.client.HSet(ctx, s.key(playerID), string(op), int(level)).Err(); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) key(playerID string) string {
	return "math:progress:" + playerID
}

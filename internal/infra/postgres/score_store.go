package postgres

import (
	"context"
	"fmt"
	"time"

	"math-quiz-service/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ScoreStore persists final scores in the math_scores table.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) SaveScore(ctx context.Context, entry domain.ScoreEntry) (domain.ScoreEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query, args, err := psql.Insert("math_scores").
		Columns("id", "user_id", "display_name", "score", "operation_type", "created_at").
		Values(entry.ID, entry.UserID, entry.DisplayName, entry.Score, string(entry.Operation), entry.CreatedAt).
		ToSql()
	if err != nil {
		return domain.ScoreEntry{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return domain.ScoreEntry{}, fmt.Errorf("insert score: %w", err)
	}
	return entry, nil
}

func (s *ScoreStore) TopScores(ctx context.Context, op domain.Operation, limit int) ([]domain.ScoreEntry, error) {
	builder := psql.Select("id", "user_id", "display_name", "score", "operation_type", "created_at").
		From("math_scores").
		Where(sq.Eq{"operation_type": string(op)}).
		OrderBy("score DESC", "created_at ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScoreEntry
	for rows.Next() {
		var (
			e      domain.ScoreEntry
			opName string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.DisplayName, &e.Score, &opName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		e.Operation = domain.Operation(opName)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return entries, nil
}

func (s *ScoreStore) DeleteUserScores(ctx context.Context, userID string) (int64, error) {
	query, args, err := psql.Delete("math_scores").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete scores: %w", err)
	}
	return tag.RowsAffected(), nil
}

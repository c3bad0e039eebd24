package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"math-quiz-service/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS level_progress (
	player_id  TEXT NOT NULL,
	operation  TEXT NOT NULL,
	level      INTEGER NOT NULL CHECK (level BETWEEN 0 AND 9),
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (player_id, operation)
);`

// ProgressStore keeps difficulty progress in a local SQLite file so it
// survives restarts of the terminal game.
type ProgressStore struct {
	db *sql.DB
}

// DefaultPath is ~/.math-quiz/progress.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".math-quiz", "progress.db"), nil
}

// Open creates the file and its directory if needed. ":memory:" is accepted.
func Open(path string) (*ProgressStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cannot create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &ProgressStore{db: db}, nil
}

func (s *ProgressStore) Close() error {
	return s.db.Close()
}

func (s *ProgressStore) LoadLevel(ctx context.Context, playerID string, op domain.Operation) (domain.Level, error) {
	var level int
	err := s.db.QueryRowContext(ctx,
		`SELECT level FROM level_progress WHERE player_id = ? AND operation = ?`,
		playerID, string(op),
	).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load progress: %w", err)
	}
	return domain.Level(level), nil
}

func (s *ProgressStore) SaveLevel(ctx context.Context, playerID string, op domain.Operation, level domain.Level) error {
	if !level.Valid() {
		return domain.ErrInvalidLevel
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO level_progress (player_id, operation, level, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (player_id, operation) DO UPDATE SET level = excluded.level, updated_at = excluded.updated_at
	`, playerID, string(op), int(level))
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

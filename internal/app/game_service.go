package app

import (
	"context"

	"math-quiz-service/internal/domain"
)

// SessionRepository abstracts where per-player engines live (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(playerID string, create func() *Engine) *Engine
	Get(playerID string) (*Engine, bool)
	Delete(playerID string)
}

// ProgressRepository persists difficulty progress for every player.
type ProgressRepository interface {
	LoadLevel(ctx context.Context, playerID string, op domain.Operation) (domain.Level, error)
	SaveLevel(ctx context.Context, playerID string, op domain.Operation, level domain.Level) error
}

// ScoreStore persists final scores and serves the raw leaderboard query.
type ScoreStore interface {
	SaveScore(ctx context.Context, entry domain.ScoreEntry) (domain.ScoreEntry, error)
	TopScores(ctx context.Context, op domain.Operation, limit int) ([]domain.ScoreEntry, error)
	DeleteUserScores(ctx context.Context, userID string) (int64, error)
}

// LeaderboardRepository serves leaderboards, usually from a cache over a ScoreStore.
type LeaderboardRepository interface {
	GetLeaderboard(ctx context.Context, op domain.Operation) (domain.Leaderboard, error)
	Invalidate(ctx context.Context, op domain.Operation)
}

// GameService hosts one engine per connected player.
type GameService struct {
	sessions  SessionRepository
	progress  ProgressRepository
	scores    ScoreStore
	boards    LeaderboardRepository
	generator ProblemGenerator
	opts      []EngineOption
}

func NewGameService(sessions SessionRepository, progress ProgressRepository, scores ScoreStore, boards LeaderboardRepository, generator ProblemGenerator, opts ...EngineOption) *GameService {
	return &GameService{
		sessions:  sessions,
		progress:  progress,
		scores:    scores,
		boards:    boards,
		generator: generator,
		opts:      opts,
	}
}

// Start begins a game for the player, creating their session on first use.
func (s *GameService) Start(ctx context.Context, player domain.Player, op domain.Operation) (domain.GameState, error) {
	if player.ID == "" {
		return domain.GameState{}, domain.ErrPlayerRequired
	}
	engine := s.sessions.GetOrCreate(player.ID, func() *Engine {
		return s.newEngine(player)
	})
	return engine.Start(ctx, op)
}

// SubmitAnswer forwards a raw answer to the player's engine.
func (s *GameService) SubmitAnswer(ctx context.Context, playerID, raw string) (domain.AnswerResult, error) {
	engine, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrSessionNotFound
	}
	correct, err := engine.SubmitAnswer(ctx, raw)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return domain.AnswerResult{Correct: correct, State: engine.Snapshot()}, nil
}

// Tick advances the player's clock; changed is false when no game is running.
func (s *GameService) Tick(ctx context.Context, playerID string) (domain.GameState, bool, error) {
	engine, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.GameState{}, false, domain.ErrSessionNotFound
	}
	state, changed := engine.Tick(ctx)
	return state, changed, nil
}

func (s *GameService) End(ctx context.Context, playerID string) (domain.GameState, error) {
	engine, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.GameState{}, domain.ErrSessionNotFound
	}
	return engine.End(ctx), nil
}

func (s *GameService) Reset(_ context.Context, playerID string) (domain.GameState, error) {
	engine, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.GameState{}, domain.ErrSessionNotFound
	}
	return engine.Reset(), nil
}

// State returns the player's current snapshot.
func (s *GameService) State(_ context.Context, playerID string) (domain.GameState, error) {
	engine, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.GameState{}, domain.ErrSessionNotFound
	}
	return engine.Snapshot(), nil
}

// Leave drops the player's session. A running game is abandoned unreported.
func (s *GameService) Leave(_ context.Context, playerID string) {
	s.sessions.Delete(playerID)
}

// Leaderboard returns the top scores for op.
func (s *GameService) Leaderboard(ctx context.Context, op domain.Operation) (domain.Leaderboard, error) {
	if !op.Valid() {
		return domain.Leaderboard{}, domain.ErrUnknownOperation
	}
	return s.boards.GetLeaderboard(ctx, op)
}

// ResetScores deletes every score of a player and refreshes all leaderboards.
func (s *GameService) ResetScores(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrPlayerRequired
	}
	n, err := s.scores.DeleteUserScores(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, op := range domain.Operations {
		s.boards.Invalidate(ctx, op)
	}
	return n, nil
}

func (s *GameService) newEngine(player domain.Player) *Engine {
	reporter := NewLeaderboardReporter(s.scores, s.boards, StaticIdentity(player))
	return NewEngine(s.generator, PlayerProgress(s.progress, player.ID), reporter, s.opts...)
}

type playerProgress struct {
	repo     ProgressRepository
	playerID string
}

// PlayerProgress scopes a ProgressRepository to one player.
func PlayerProgress(repo ProgressRepository, playerID string) ProgressStore {
	return playerProgress{repo: repo, playerID: playerID}
}

func (p playerProgress) LoadLevel(ctx context.Context, op domain.Operation) (domain.Level, error) {
	return p.repo.LoadLevel(ctx, p.playerID, op)
}

func (p playerProgress) SaveLevel(ctx context.Context, op domain.Operation, level domain.Level) error {
	return p.repo.SaveLevel(ctx, p.playerID, op, level)
}

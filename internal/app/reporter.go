package app

import (
	"context"
	"time"

	"math-quiz-service/internal/domain"
)

// Identity resolves who the current player is, if anyone.
type Identity interface {
	CurrentUser(ctx context.Context) (domain.Player, bool)
}

// IdentityFunc adapts a function to Identity.
type IdentityFunc func(ctx context.Context) (domain.Player, bool)

func (f IdentityFunc) CurrentUser(ctx context.Context) (domain.Player, bool) { return f(ctx) }

// StaticIdentity always resolves to player; an empty id means nobody.
func StaticIdentity(player domain.Player) Identity {
	return IdentityFunc(func(context.Context) (domain.Player, bool) {
		return player, player.ID != ""
	})
}

// LeaderboardReporter saves final scores for the current identity.
type LeaderboardReporter struct {
	scores   ScoreStore
	boards   LeaderboardRepository
	identity Identity
	now      func() time.Time
}

func NewLeaderboardReporter(scores ScoreStore, boards LeaderboardRepository, identity Identity) *LeaderboardReporter {
	return &LeaderboardReporter{scores: scores, boards: boards, identity: identity, now: time.Now}
}

// ReportFinalScore is a no-op without an identity or a positive score.
func (r *LeaderboardReporter) ReportFinalScore(ctx context.Context, score int, op domain.Operation) error {
	if score <= 0 || r.identity == nil {
		return nil
	}
	player, ok := r.identity.CurrentUser(ctx)
	if !ok {
		return nil
	}
	if _, err := r.scores.SaveScore(ctx, domain.ScoreEntry{
		UserID:      player.ID,
		DisplayName: player.DisplayName,
		Score:       score,
		Operation:   op,
		CreatedAt:   r.now().UTC(),
	}); err != nil {
		return err
	}
	if r.boards != nil {
		r.boards.Invalidate(ctx, op)
	}
	return nil
}

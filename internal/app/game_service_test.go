package app_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/infra/memory"
	"math-quiz-service/internal/problemgen"
)

func TestPlayAndReportToLeaderboard(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	alice := domain.Player{ID: "u1", DisplayName: "Alice"}
	bob := domain.Player{ID: "u2", DisplayName: "Bob"}

	playCorrect(t, service, alice, domain.Addition, 1)
	playCorrect(t, service, bob, domain.Addition, 3)

	lb, err := service.Leaderboard(ctx, domain.Addition)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lb.Entries))
	}
	if lb.Entries[0].UserID != "u2" || lb.Entries[0].Score != 30 || lb.Entries[0].DisplayName != "Bob" {
		t.Fatalf("expected Bob to lead with 30 points, got %+v", lb.Entries[0])
	}
}

func TestLeaderboardRefreshesAfterNewScore(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	playCorrect(t, service, domain.Player{ID: "u1", DisplayName: "Alice"}, domain.Division, 1)
	if lb, _ := service.Leaderboard(ctx, domain.Division); len(lb.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %+v", lb.Entries)
	}

	playCorrect(t, service, domain.Player{ID: "u2", DisplayName: "Bob"}, domain.Division, 2)
	lb, _ := service.Leaderboard(ctx, domain.Division)
	if len(lb.Entries) != 2 || lb.Entries[0].UserID != "u2" {
		t.Fatalf("expected cached board invalidated by the new score, got %+v", lb.Entries)
	}
}

func TestProgressIsScopedPerPlayer(t *testing.T) {
	ctx := context.Background()
	service, progress := newTestService()
	if err := progress.SaveLevel(ctx, "u1", domain.Multiplication, 3); err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	state, err := service.Start(ctx, domain.Player{ID: "u1", DisplayName: "Alice"}, domain.Multiplication)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Level != 3 {
		t.Fatalf("expected alice at level 3, got %d", state.Level)
	}
	state, _ = service.Start(ctx, domain.Player{ID: "u2", DisplayName: "Bob"}, domain.Multiplication)
	if state.Level != 0 {
		t.Fatalf("expected bob at level 0, got %d", state.Level)
	}
}

func TestSubmitRequiresSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	if _, err := service.SubmitAnswer(ctx, "nobody", "4"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.Tick(ctx, "nobody"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error on tick, got %v", err)
	}
	if _, err := service.Start(ctx, domain.Player{}, domain.Addition); err != domain.ErrPlayerRequired {
		t.Fatalf("expected player required, got %v", err)
	}

	_, _ = service.Start(ctx, domain.Player{ID: "u1"}, domain.Addition)
	_, _ = service.End(ctx, "u1")
	if _, err := service.SubmitAnswer(ctx, "u1", "4"); err != domain.ErrNotPlaying {
		t.Fatalf("expected not playing after end, got %v", err)
	}
}

func TestResetScoresRemovesPlayerRows(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	playCorrect(t, service, domain.Player{ID: "u1", DisplayName: "Alice"}, domain.Subtraction, 2)
	playCorrect(t, service, domain.Player{ID: "u2", DisplayName: "Bob"}, domain.Subtraction, 1)
	_, _ = service.Leaderboard(ctx, domain.Subtraction)

	n, err := service.ResetScores(ctx, "u1")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 row removed, got %d (%v)", n, err)
	}
	lb, _ := service.Leaderboard(ctx, domain.Subtraction)
	if len(lb.Entries) != 1 || lb.Entries[0].UserID != "u2" {
		t.Fatalf("expected only bob left, got %+v", lb.Entries)
	}
}

func TestLeaderboardRejectsUnknownOperation(t *testing.T) {
	service, _ := newTestService()
	if _, err := service.Leaderboard(context.Background(), "exponent"); err != domain.ErrUnknownOperation {
		t.Fatalf("expected unknown operation, got %v", err)
	}
}

func TestReporterWithoutIdentityIsNoop(t *testing.T) {
	scores := memory.NewScoreStore()
	anonymous := app.IdentityFunc(func(context.Context) (domain.Player, bool) { return domain.Player{}, false })
	reporter := app.NewLeaderboardReporter(scores, nil, anonymous)

	if err := reporter.ReportFinalScore(context.Background(), 50, domain.Addition); err != nil {
		t.Fatalf("report: %v", err)
	}
	if top, _ := scores.TopScores(context.Background(), domain.Addition, 10); len(top) != 0 {
		t.Fatalf("expected nothing saved, got %+v", top)
	}
}

// playCorrect starts a game, answers n problems correctly and ends it.
func playCorrect(t *testing.T, service *app.GameService, player domain.Player, op domain.Operation, n int) {
	t.Helper()
	ctx := context.Background()
	state, err := service.Start(ctx, player, op)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < n; i++ {
		result, err := service.SubmitAnswer(ctx, player.ID, strconv.Itoa(state.Problem.Answer))
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if !result.Correct {
			t.Fatalf("expected correct answer")
		}
		state = result.State
	}
	if _, err := service.End(ctx, player.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
}

func newTestService() (*app.GameService, *memory.ProgressStore) {
	progress := memory.NewProgressStore()
	scores := memory.NewScoreStore()
	boards := memory.NewLeaderboardRepository(scores, 10, 5*time.Minute)
	return app.NewGameService(
		memory.NewSessionStore(),
		progress,
		scores,
		boards,
		problemgen.NewGeneratorWithSeed(1),
		app.WithRunner(func(f func()) { f() }),
		app.WithFeedbackWindow(0),
	), progress
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/infra/memory"
	"math-quiz-service/internal/problemgen"
)

func TestLeaderboardEndpoints(t *testing.T) {
	scores := memory.NewScoreStore()
	for _, e := range []domain.ScoreEntry{
		{UserID: "u1", DisplayName: "Alice", Score: 40, Operation: domain.Multiplication},
		{UserID: "u2", DisplayName: "Bob", Score: 90, Operation: domain.Multiplication},
	} {
		if _, err := scores.SaveScore(context.Background(), e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	service := app.NewGameService(memory.NewSessionStore(), memory.NewProgressStore(), scores,
		memory.NewLeaderboardRepository(scores, 10, time.Minute), problemgen.NewGenerator())
	router := NewRouter(service, NewWSHandler(service, time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard/multiplication", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var board domain.Leaderboard
	if err := json.NewDecoder(rec.Body).Decode(&board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(board.Entries) != 2 || board.Entries[0].DisplayName != "Bob" {
		t.Fatalf("expected bob first, got %+v", board.Entries)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard/modulo", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown operation, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/players/u2/scores", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard/multiplication", nil))
	board = domain.Leaderboard{}
	_ = json.NewDecoder(rec.Body).Decode(&board)
	if len(board.Entries) != 1 || board.Entries[0].UserID != "u1" {
		t.Fatalf("expected only alice after reset, got %+v", board.Entries)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Body.String() != "ok" {
		t.Fatalf("expected ok, got %q", rec.Body.String())
	}
}

package redis

import (
	"context"
	"testing"

	"math-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewProgressStore(newClient(mr))

	level, err := store.LoadLevel(ctx, "u1", domain.Multiplication)
	if err != nil || level != 0 {
		t.Fatalf("expected default level 0, got %d (%v)", level, err)
	}

	if err := store.SaveLevel(ctx, "u1", domain.Multiplication, 3); err != nil {
		t.Fatalf("save level: %v", err)
	}
	if got := mr.HGet("math:progress:u1", "multiplication"); got != "3" {
		t.Fatalf("expected hash field 3, got %q", got)
	}

	level, err = store.LoadLevel(ctx, "u1", domain.Multiplication)
	if err != nil || level != 3 {
		t.Fatalf("expected level 3, got %d (%v)", level, err)
	}
	if err := store.SaveLevel(ctx, "u1", domain.Multiplication, 10); err != domain.ErrInvalidLevel {
		t.Fatalf("expected invalid level, got %v", err)
	}
}

func TestProgressStoreRejectsCorruptValues(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mr.HSet("math:progress:u1", "addition", "banana")
	store := NewProgressStore(newClient(mr))
	if _, err := store.LoadLevel(context.Background(), "u1", domain.Addition); err == nil {
		t.Fatalf("expected parse error")
	}
}

package app

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"math-quiz-service/internal/domain"
)

const (
	InitialTime    = 30
	MaxTime        = 99
	TimeBonus      = 5
	WrongPenalty   = 5
	StreakPerLevel = 5

	DefaultFeedbackWindow = 1500 * time.Millisecond
	defaultPersistTimeout = 5 * time.Second
)

// ProblemGenerator builds a problem for an operation at a difficulty level.
type ProblemGenerator interface {
	Generate(op domain.Operation, level domain.Level) domain.Problem
}

// ProgressStore persists the last reached level per operation.
type ProgressStore interface {
	LoadLevel(ctx context.Context, op domain.Operation) (domain.Level, error)
	SaveLevel(ctx context.Context, op domain.Operation, level domain.Level) error
}

// ScoreReporter receives the final score of a finished game.
type ScoreReporter interface {
	ReportFinalScore(ctx context.Context, score int, op domain.Operation) error
}

// EngineOption tweaks an Engine at construction.
type EngineOption func(*Engine)

// WithFeedbackWindow sets how long transient feedback survives. Zero leaves
// clearing to the caller.
func WithFeedbackWindow(d time.Duration) EngineOption {
	return func(e *Engine) { e.feedbackWindow = d }
}

// WithAfterFunc replaces time.AfterFunc for scheduling feedback clears.
func WithAfterFunc(fn func(time.Duration, func())) EngineOption {
	return func(e *Engine) { e.afterFunc = fn }
}

// WithRunner replaces the goroutine launcher used for fire-and-forget persistence.
func WithRunner(run func(func())) EngineOption {
	return func(e *Engine) { e.run = run }
}

// WithPersistTimeout bounds each background persistence call.
func WithPersistTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.persistTimeout = d }
}

// Engine owns the state of one game session. Gameplay calls are expected to
// come from a single caller; the mutex only serializes them against the
// scheduled feedback clear.
type Engine struct {
	generator ProblemGenerator
	progress  ProgressStore
	reporter  ScoreReporter

	feedbackWindow time.Duration
	persistTimeout time.Duration
	afterFunc      func(time.Duration, func())
	run            func(func())

	mu         sync.Mutex
	state      domain.GameState
	generation uint64
	reported   bool

	// saves may finish out of order; only the newest per operation lands
	saveMu    sync.Mutex
	saveSeq   uint64
	lastSaved map[domain.Operation]uint64
}

func NewEngine(generator ProblemGenerator, progress ProgressStore, reporter ScoreReporter, opts ...EngineOption) *Engine {
	e := &Engine{
		generator:      generator,
		progress:       progress,
		reporter:       reporter,
		feedbackWindow: DefaultFeedbackWindow,
		persistTimeout: defaultPersistTimeout,
		afterFunc:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		run:            func(f func()) { go f() },
		lastSaved:      make(map[domain.Operation]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = domain.GameState{
		Phase:         domain.PhaseIdle,
		TimeRemaining: InitialTime,
		Operation:     domain.Addition,
		Problem:       generator.Generate(domain.Addition, 0),
	}
	return e
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() domain.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Start begins a new game for op at the saved level for that operation.
func (e *Engine) Start(ctx context.Context, op domain.Operation) (domain.GameState, error) {
	if !op.Valid() {
		return domain.GameState{}, domain.ErrUnknownOperation
	}
	level := e.loadLevel(ctx, op)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.reported = false
	e.state = domain.GameState{
		Phase:         domain.PhasePlaying,
		TimeRemaining: InitialTime,
		Operation:     op,
		Level:         level,
		Problem:       e.generator.Generate(op, level),
	}
	return e.snapshotLocked(), nil
}

// SubmitAnswer checks raw against the current problem and reports whether it
// was correct. A fresh problem replaces the current one either way.
func (e *Engine) SubmitAnswer(_ context.Context, raw string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != domain.PhasePlaying {
		return false, domain.ErrNotPlaying
	}

	s := &e.state
	answer, err := strconv.Atoi(strings.TrimSpace(raw))
	correct := err == nil && answer == s.Problem.Answer

	s.LeveledUp = false
	if correct {
		points := s.Level.Points()
		s.Score += points
		s.ConsecutiveCorrect++
		next := domain.Level(s.ConsecutiveCorrect / StreakPerLevel)
		if next > domain.MaxLevel {
			next = domain.MaxLevel
		}
		if next > s.Level {
			s.Level = next
			s.LeveledUp = true
			e.saveLevel(s.Operation, next)
		}
		s.TimeRemaining = min(MaxTime, s.TimeRemaining+TimeBonus)
		s.LastScoreChange = intPtr(points)
		s.LastTimeBonus = intPtr(TimeBonus)
	} else {
		s.Score = max(0, s.Score-WrongPenalty)
		s.ConsecutiveCorrect = 0
		s.LastScoreChange = intPtr(-WrongPenalty)
		s.LastTimeBonus = nil
	}
	s.Problem = e.generator.Generate(s.Operation, s.Level)

	e.generation++
	e.scheduleClearLocked(e.generation)
	return correct, nil
}

// Tick advances the clock by one second. It reports whether anything changed;
// reaching zero ends the game within the same tick.
func (e *Engine) Tick(ctx context.Context) (domain.GameState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != domain.PhasePlaying {
		return e.snapshotLocked(), false
	}
	if e.state.TimeRemaining > 0 {
		e.state.TimeRemaining--
	}
	if e.state.TimeRemaining == 0 {
		e.endLocked(ctx)
	}
	return e.snapshotLocked(), true
}

// End moves the session to game over and reports a positive final score once.
func (e *Engine) End(ctx context.Context) domain.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endLocked(ctx)
	return e.snapshotLocked()
}

// Reset returns to idle. Saved per-operation progress is left alone.
func (e *Engine) Reset() domain.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.reported = false
	e.state = domain.GameState{
		Phase:         domain.PhaseIdle,
		TimeRemaining: InitialTime,
		Operation:     e.state.Operation,
		Problem:       e.generator.Generate(e.state.Operation, 0),
	}
	return e.snapshotLocked()
}

// ClearFeedback drops the transient feedback fields immediately.
func (e *Engine) ClearFeedback() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.clearFeedbackLocked()
}

func (e *Engine) endLocked(_ context.Context) {
	if e.state.Phase == domain.PhaseGameOver {
		return
	}
	e.state.Phase = domain.PhaseGameOver
	if e.state.Score > 0 && !e.reported {
		e.reported = true
		e.reportScore(e.state.Score, e.state.Operation)
	}
}

func (e *Engine) scheduleClearLocked(gen uint64) {
	if e.feedbackWindow <= 0 {
		return
	}
	e.afterFunc(e.feedbackWindow, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.generation != gen {
			return
		}
		e.clearFeedbackLocked()
	})
}

func (e *Engine) clearFeedbackLocked() {
	e.state.LastScoreChange = nil
	e.state.LastTimeBonus = nil
	e.state.LeveledUp = false
}

func (e *Engine) loadLevel(ctx context.Context, op domain.Operation) domain.Level {
	if e.progress == nil {
		return 0
	}
	level, err := e.progress.LoadLevel(ctx, op)
	if err != nil {
		log.Printf("load level for %s: %v", op, err)
		return 0
	}
	if !level.Valid() {
		log.Printf("load level for %s: %v (%d)", op, domain.ErrInvalidLevel, level)
		return 0
	}
	return level
}

func (e *Engine) saveLevel(op domain.Operation, level domain.Level) {
	if e.progress == nil {
		return
	}
	e.saveSeq++
	seq := e.saveSeq
	e.run(func() {
		e.saveMu.Lock()
		defer e.saveMu.Unlock()
		if seq < e.lastSaved[op] {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), e.persistTimeout)
		defer cancel()
		if err := e.progress.SaveLevel(ctx, op, level); err != nil {
			log.Printf("save level %d for %s: %v", level, op, err)
			return
		}
		e.lastSaved[op] = seq
	})
}

func (e *Engine) reportScore(score int, op domain.Operation) {
	if e.reporter == nil {
		return
	}
	e.run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.persistTimeout)
		defer cancel()
		if err := e.reporter.ReportFinalScore(ctx, score, op); err != nil {
			log.Printf("report score %d for %s: %v", score, op, err)
		}
	})
}

func (e *Engine) snapshotLocked() domain.GameState {
	s := e.state
	if s.LastScoreChange != nil {
		s.LastScoreChange = intPtr(*s.LastScoreChange)
	}
	if s.LastTimeBonus != nil {
		s.LastTimeBonus = intPtr(*s.LastTimeBonus)
	}
	return s
}

func intPtr(v int) *int { return &v }

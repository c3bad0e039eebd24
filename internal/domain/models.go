package domain

import "time"

// Operation is one of the four arithmetic kinds a game quizzes on.
type Operation string

const (
	Addition       Operation = "addition"
	Subtraction    Operation = "subtraction"
	Multiplication Operation = "multiplication"
	Division       Operation = "division"
)

// Operations lists every supported operation in display order.
var Operations = []Operation{Addition, Subtraction, Multiplication, Division}

// ParseOperation validates a raw operation name.
func ParseOperation(raw string) (Operation, error) {
	op := Operation(raw)
	if !op.Valid() {
		return "", ErrUnknownOperation
	}
	return op, nil
}

func (o Operation) Valid() bool {
	switch o {
	case Addition, Subtraction, Multiplication, Division:
		return true
	}
	return false
}

// Symbol is the infix sign used when rendering a problem.
func (o Operation) Symbol() string {
	switch o {
	case Addition:
		return "+"
	case Subtraction:
		return "-"
	case Multiplication:
		return "×"
	case Division:
		return "÷"
	}
	return "?"
}

// Level is a difficulty tier. Gameplay keeps it within [0, MaxLevel].
type Level int

const MaxLevel Level = 9

// Valid reports whether the level is inside the playable band.
func (l Level) Valid() bool {
	return l >= 0 && l <= MaxLevel
}

// Points is the score awarded for a correct answer at this level.
func (l Level) Points() int {
	switch {
	case l <= 0:
		return 10
	case l <= MaxLevel:
		return 10 + int(l)*5
	default:
		return 60
	}
}

// Problem is a single arithmetic question. Answer is never sent to clients.
type Problem struct {
	Operand1 int       `json:"operand1"`
	Operand2 int       `json:"operand2"`
	Answer   int       `json:"-"`
	Op       Operation `json:"operation"`
}

// Phase is the lifecycle position of a game session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "gameOver"
)

// GameState is a point-in-time copy of a session. The optional fields are
// transient feedback and are nil once the feedback window has passed.
type GameState struct {
	Phase              Phase     `json:"phase"`
	Score              int       `json:"score"`
	TimeRemaining      int       `json:"timeRemaining"`
	Operation          Operation `json:"operation"`
	Problem            Problem   `json:"problem"`
	Level              Level     `json:"level"`
	ConsecutiveCorrect int       `json:"consecutiveCorrect"`
	LastScoreChange    *int      `json:"lastScoreChange,omitempty"`
	LastTimeBonus      *int      `json:"lastTimeBonus,omitempty"`
	LeveledUp          bool      `json:"leveledUp"`
}

func (s GameState) IsPlaying() bool  { return s.Phase == PhasePlaying }
func (s GameState) IsGameOver() bool { return s.Phase == PhaseGameOver }

// Player identifies whoever a final score is attributed to.
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// ScoreEntry is one persisted final score.
type ScoreEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Score       int       `json:"score"`
	Operation   Operation `json:"operation"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Leaderboard is the ordered top scores for one operation.
type Leaderboard struct {
	Operation Operation    `json:"operation"`
	Entries   []ScoreEntry `json:"entries"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// AnswerResult summarizes a submission for transport layers.
type AnswerResult struct {
	Correct bool      `json:"correct"`
	State   GameState `json:"state"`
}

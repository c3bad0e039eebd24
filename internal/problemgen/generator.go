package problemgen

import (
	"math/rand"
	"sync"
	"time"

	"math-quiz-service/internal/domain"
)

type bounds struct{ min, max int }

var levelRanges = [...]bounds{
	{1, 10},
	{11, 50},
	{51, 100},
	{101, 200},
	{201, 300},
	{301, 500},
	{501, 750},
	{751, 999},
	{1000, 2000},
	{2001, 5000},
}

// beyond the table; gameplay clamps levels so this only guards bad input.
var fallbackRange = bounds{5001, 9999}

// RangeFor returns the inclusive operand range for a difficulty level.
func RangeFor(level domain.Level) (int, int) {
	if level < 0 {
		level = 0
	}
	if int(level) >= len(levelRanges) {
		return fallbackRange.min, fallbackRange.max
	}
	r := levelRanges[level]
	return r.min, r.max
}

// FactorRangeFor narrows RangeFor for multiplication and division so products
// stay manageable at high levels. From level 2 on the cap sits below the level
// minimum; the range then spans the two bounds.
func FactorRangeFor(level domain.Level) (int, int) {
	lo, hi := RangeFor(level)
	if lo < 2 {
		lo = 2
	}
	if lvl := int(level); lvl >= 0 {
		if capped := 20 + 5*lvl; capped < hi {
			hi = capped
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Generator produces problems. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed gives reproducible sequences for tests.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate draws a problem for op at level. Division problems always divide
// evenly and subtraction answers are never negative.
func (g *Generator) Generate(op domain.Operation, level domain.Level) domain.Problem {
	var lo, hi int
	if op == domain.Multiplication || op == domain.Division {
		lo, hi = FactorRangeFor(level)
	} else {
		lo, hi = RangeFor(level)
	}

	g.mu.Lock()
	a := lo + g.rnd.Intn(hi-lo+1)
	b := lo + g.rnd.Intn(hi-lo+1)
	g.mu.Unlock()

	p := domain.Problem{Op: op}
	switch op {
	case domain.Subtraction:
		if a < b {
			a, b = b, a
		}
		p.Operand1, p.Operand2, p.Answer = a, b, a-b
	case domain.Multiplication:
		p.Operand1, p.Operand2, p.Answer = a, b, a*b
	case domain.Division:
		// a is the quotient, b the divisor.
		p.Operand1, p.Operand2, p.Answer = a*b, b, a
	default:
		p.Op = domain.Addition
		p.Operand1, p.Operand2, p.Answer = a, b, a+b
	}
	return p
}

// Check reports whether p is internally consistent.
func Check(p domain.Problem) bool {
	switch p.Op {
	case domain.Addition:
		return p.Operand1+p.Operand2 == p.Answer
	case domain.Subtraction:
		return p.Answer >= 0 && p.Operand1-p.Operand2 == p.Answer
	case domain.Multiplication:
		return p.Operand1*p.Operand2 == p.Answer
	case domain.Division:
		return p.Operand2 != 0 && p.Operand1%p.Operand2 == 0 && p.Operand1/p.Operand2 == p.Answer
	}
	return false
}

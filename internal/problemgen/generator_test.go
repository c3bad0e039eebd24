package problemgen

import (
	"testing"

	"math-quiz-service/internal/domain"
)

func TestGenerateSatisfiesOperationInvariant(t *testing.T) {
	gen := NewGeneratorWithSeed(42)
	for _, op := range domain.Operations {
		for level := domain.Level(0); level <= domain.MaxLevel; level++ {
			for i := 0; i < 200; i++ {
				p := gen.Generate(op, level)
				if !Check(p) {
					t.Fatalf("%s level %d: inconsistent problem %+v", op, level, p)
				}
				if p.Op != op {
					t.Fatalf("expected operation %s, got %s", op, p.Op)
				}
			}
		}
	}
}

func TestGenerateStaysInRange(t *testing.T) {
	gen := NewGeneratorWithSeed(7)
	for level := domain.Level(0); level <= domain.MaxLevel; level++ {
		lo, hi := RangeFor(level)
		flo, fhi := FactorRangeFor(level)
		for i := 0; i < 200; i++ {
			add := gen.Generate(domain.Addition, level)
			if add.Operand1 < lo || add.Operand1 > hi || add.Operand2 < lo || add.Operand2 > hi {
				t.Fatalf("level %d addition operands out of [%d,%d]: %+v", level, lo, hi, add)
			}
			sub := gen.Generate(domain.Subtraction, level)
			if sub.Operand1 < sub.Operand2 {
				t.Fatalf("expected larger operand first, got %+v", sub)
			}
			mul := gen.Generate(domain.Multiplication, level)
			if mul.Operand1 < flo || mul.Operand1 > fhi || mul.Operand2 < flo || mul.Operand2 > fhi {
				t.Fatalf("level %d factors out of [%d,%d]: %+v", level, flo, fhi, mul)
			}
			div := gen.Generate(domain.Division, level)
			if div.Answer < flo || div.Answer > fhi || div.Operand2 < flo || div.Operand2 > fhi {
				t.Fatalf("level %d quotient/divisor out of [%d,%d]: %+v", level, flo, fhi, div)
			}
		}
	}
}

func TestRangeTable(t *testing.T) {
	cases := []struct {
		level  domain.Level
		lo, hi int
	}{
		{0, 1, 10},
		{1, 11, 50},
		{2, 51, 100},
		{3, 101, 200},
		{4, 201, 300},
		{5, 301, 500},
		{6, 501, 750},
		{7, 751, 999},
		{8, 1000, 2000},
		{9, 2001, 5000},
		{10, 5001, 9999},
		{42, 5001, 9999},
	}
	for _, c := range cases {
		lo, hi := RangeFor(c.level)
		if lo != c.lo || hi != c.hi {
			t.Fatalf("level %d: expected %d-%d, got %d-%d", c.level, c.lo, c.hi, lo, hi)
		}
	}
}

func TestFactorRange(t *testing.T) {
	cases := []struct {
		level  domain.Level
		lo, hi int
	}{
		{0, 2, 10},
		{1, 11, 25},
		{2, 30, 51},
		{3, 35, 101},
		{9, 65, 2001},
	}
	for _, c := range cases {
		lo, hi := FactorRangeFor(c.level)
		if lo != c.lo || hi != c.hi {
			t.Fatalf("level %d: expected factors %d-%d, got %d-%d", c.level, c.lo, c.hi, lo, hi)
		}
	}
}

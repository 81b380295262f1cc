package game

import (
	"errors"
	"fmt"

	"ladder-quiz-service/internal/domain"
)

// Rung is one level of the prize ladder. A floor rung guarantees its prize
// once the player has climbed past it.
type Rung struct {
	Prize int  `yaml:"prize"`
	Floor bool `yaml:"floor"`
}

// PrizeTable maps levels to prizes. It is immutable after construction and
// safe for concurrent reads.
type PrizeTable struct {
	rungs []Rung
}

// NewPrizeTable validates and copies the ladder.
func NewPrizeTable(rungs []Rung) (*PrizeTable, error) {
	if len(rungs) == 0 {
		return nil, errors.New("prize table: no levels")
	}
	for i, r := range rungs {
		if r.Prize <= 0 {
			return nil, fmt.Errorf("prize table: level %d has non-positive prize %d", i, r.Prize)
		}
		if i > 0 && r.Prize <= rungs[i-1].Prize {
			return nil, fmt.Errorf("prize table: level %d prize %d does not exceed level %d", i, r.Prize, i-1)
		}
	}
	cp := make([]Rung, len(rungs))
	copy(cp, rungs)
	return &PrizeTable{rungs: cp}, nil
}

// DefaultRungs is the fifteen-level production ladder with floors at the
// fifth and tenth questions.
func DefaultRungs() []Rung {
	return []Rung{
		{Prize: 100}, {Prize: 200}, {Prize: 300}, {Prize: 500}, {Prize: 1000, Floor: true},
		{Prize: 2000}, {Prize: 4000}, {Prize: 8000}, {Prize: 16000}, {Prize: 32000, Floor: true},
		{Prize: 64000}, {Prize: 125000}, {Prize: 250000}, {Prize: 500000}, {Prize: 1000000},
	}
}

// DefaultPrizeTable returns the production ladder.
func DefaultPrizeTable() *PrizeTable {
	t, err := NewPrizeTable(DefaultRungs())
	if err != nil {
		panic(err)
	}
	return t
}

// Levels is the number of questions in a run.
func (t *PrizeTable) Levels() int {
	return len(t.rungs)
}

// PrizeAt returns the prize for having completed level.
func (t *PrizeTable) PrizeAt(level int) (int, error) {
	if level < 0 || level >= len(t.rungs) {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", domain.ErrOutOfRange, level, len(t.rungs)-1)
	}
	return t.rungs[level].Prize, nil
}

// FloorPrizeBelow returns the prize of the highest floor strictly below
// level, or 0 when no floor has been passed.
func (t *PrizeTable) FloorPrizeBelow(level int) int {
	if level > len(t.rungs) {
		level = len(t.rungs)
	}
	for i := level - 1; i >= 0; i-- {
		if t.rungs[i].Floor {
			return t.rungs[i].Prize
		}
	}
	return 0
}

// Awardable reports whether prize can end a run: zero or a ladder prize.
func (t *PrizeTable) Awardable(prize int) bool {
	if prize == 0 {
		return true
	}
	for _, r := range t.rungs {
		if r.Prize == prize {
			return true
		}
	}
	return false
}

// Top is the prize for answering every question.
func (t *PrizeTable) Top() int {
	return t.rungs[len(t.rungs)-1].Prize
}

// Rungs exports the ladder for presentation.
func (t *PrizeTable) Rungs() []domain.PrizeRung {
	out := make([]domain.PrizeRung, len(t.rungs))
	for i, r := range t.rungs {
		out[i] = domain.PrizeRung{Level: i, Prize: r.Prize, Floor: r.Floor}
	}
	return out
}

package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"ladder-quiz-service/internal/domain"
)

var t0 = time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

// ladderSupplier builds a valid question for every requested level; the
// correct key rotates through a..d.
type ladderSupplier struct {
	skip  map[int]bool
	calls int
}

func (s *ladderSupplier) QuestionsForLevels(_ context.Context, levels []int) (map[int]domain.Question, error) {
	s.calls++
	out := make(map[int]domain.Question, len(levels))
	for _, level := range levels {
		if s.skip[level] {
			continue
		}
		out[level] = testQuestion(level)
	}
	return out, nil
}

func testQuestion(level int) domain.Question {
	return domain.Question{
		ID:    fmt.Sprintf("q%d", level),
		Level: level,
		Text:  fmt.Sprintf("question for level %d", level),
		Variants: map[string]string{
			"a": "first", "b": "second", "c": "third", "d": "fourth",
		},
		CorrectKey: domain.AnswerKeys[level%len(domain.AnswerKeys)],
	}
}

func wrongKey(q domain.Question) string {
	for _, k := range domain.AnswerKeys {
		if k != q.CorrectKey {
			return k
		}
	}
	return ""
}

func defaultRules() Rules {
	return Rules{Prizes: DefaultPrizeTable(), TimeLimit: time.Hour, Rand: rand.New(rand.NewSource(1))}
}

func shortRules() Rules {
	table, err := NewPrizeTable([]Rung{
		{Prize: 10}, {Prize: 20}, {Prize: 50, Floor: true}, {Prize: 100}, {Prize: 500},
	})
	if err != nil {
		panic(err)
	}
	return Rules{Prizes: table, TimeLimit: 10 * time.Minute, Rand: rand.New(rand.NewSource(7))}
}

func newSession(rules Rules) *Session {
	s, err := New(context.Background(), &ladderSupplier{}, rules, t0)
	if err != nil {
		panic(err)
	}
	return s
}

// climb answers n questions correctly one second apart.
func climb(s *Session, n int) {
	for i := 0; i < n; i++ {
		q, _ := s.CurrentQuestion()
		if ok, err := s.Answer(q.CorrectKey, t0.Add(time.Duration(i+1)*time.Second)); err != nil || !ok {
			panic(fmt.Sprintf("climb level %d: ok=%v err=%v", i, ok, err))
		}
	}
}

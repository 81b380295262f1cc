package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ladder-quiz-service/internal/domain"
)

func TestQuestionBankCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleQuestions(3, 2))}
	bank := NewQuestionBank(loader, time.Minute)

	got, err := bank.QuestionsForLevels(context.Background(), []int{0, 1, 2})
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got))
	}
	for level, q := range got {
		if q.Level != level {
			t.Fatalf("question %s tagged level %d, expected %d", q.ID, q.Level, level)
		}
	}
	if loader.calls != 3 {
		t.Fatalf("expected loader once per level, got %d", loader.calls)
	}

	if _, err := bank.QuestionsForLevels(context.Background(), []int{0, 1, 2}); err != nil {
		t.Fatalf("questions 2: %v", err)
	}
	if loader.calls != 3 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionBankReloadsAfterTTL(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleQuestions(1, 1))}
	bank := NewQuestionBank(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bank.clock = func() time.Time { return now }

	if _, err := bank.QuestionsForLevels(context.Background(), []int{0}); err != nil {
		t.Fatalf("questions: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := bank.QuestionsForLevels(context.Background(), []int{0}); err != nil {
		t.Fatalf("questions: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuestionBankMissingLevel(t *testing.T) {
	bank := NewQuestionBank(NewStaticQuestionLoader(sampleQuestions(2, 1)), time.Minute)
	_, err := bank.QuestionsForLevels(context.Background(), []int{0, 1, 2})
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadLevel(ctx context.Context, level int) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadLevel(ctx, level)
}

func sampleQuestions(levels, perLevel int) []domain.Question {
	var out []domain.Question
	for level := 0; level < levels; level++ {
		for i := 0; i < perLevel; i++ {
			out = append(out, domain.Question{
				ID:         fmt.Sprintf("q%d-%d", level, i),
				Level:      level,
				Text:       fmt.Sprintf("What is %d + %d?", level, i),
				Variants:   map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
				CorrectKey: "b",
			})
		}
	}
	return out
}

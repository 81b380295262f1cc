package http

import (
	"fmt"
	"time"

	"ladder-quiz-service/internal/app"
	"ladder-quiz-service/internal/domain"
	"ladder-quiz-service/internal/game"
	"ladder-quiz-service/internal/infra/memory"
)

const correctKey = "b"

func newTestService() *app.GameService {
	bank := memory.NewQuestionBank(memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	return app.NewGameService(memory.NewGameStore(), bank, memory.NewLedger(), game.Rules{})
}

func sampleQuestions() []domain.Question {
	var out []domain.Question
	for level := 0; level < 15; level++ {
		out = append(out, domain.Question{
			ID:         fmt.Sprintf("q%d", level),
			Level:      level,
			Text:       fmt.Sprintf("What is %d + 1?", level),
			Variants:   map[string]string{"a": "0", "b": fmt.Sprint(level + 1), "c": "-1", "d": "42"},
			CorrectKey: correctKey,
		})
	}
	return out
}

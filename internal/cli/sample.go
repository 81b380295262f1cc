package cli

import (
	"fmt"
	"strconv"

	"ladder-quiz-service/internal/domain"
)

const samplesPerLevel = 3

// sampleQuestions generates arithmetic questions that get harder with the level.
// It backs the in-memory bank and the default seed.
func sampleQuestions(levels int) []domain.Question {
	out := make([]domain.Question, 0, levels*samplesPerLevel)
	for level := 0; level < levels; level++ {
		for i := 0; i < samplesPerLevel; i++ {
			x := (level+1)*(i+3) + level*level*7
			y := (level+2)*(i+1) + level*13
			answer := x + y
			if level >= 10 {
				answer = x * y
			}

			wrong := []int{answer - (level + 1), answer + level + 2, answer + 10*(level+1)}
			correctKey := domain.AnswerKeys[(level+i)%len(domain.AnswerKeys)]
			variants := make(map[string]string, len(domain.AnswerKeys))
			for _, key := range domain.AnswerKeys {
				if key == correctKey {
					variants[key] = strconv.Itoa(answer)
					continue
				}
				variants[key] = strconv.Itoa(wrong[0])
				wrong = wrong[1:]
			}

			op := "+"
			if level >= 10 {
				op = "×"
			}
			out = append(out, domain.Question{
				ID:         fmt.Sprintf("sample-%02d-%d", level, i),
				Level:      level,
				Text:       fmt.Sprintf("How much is %d %s %d?", x, op, y),
				Variants:   variants,
				CorrectKey: correctKey,
			})
		}
	}
	return out
}

package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ladder-quiz-service/internal/domain"
)

func TestSampleQuestionsAreValid(t *testing.T) {
	questions := sampleQuestions(15)
	require.Len(t, questions, 15*samplesPerLevel)
	require.NoError(t, validateQuestions(questions))

	for _, q := range questions {
		seen := map[string]bool{}
		for _, v := range q.Variants {
			assert.False(t, seen[v], "duplicate variant in %s", q.ID)
			seen[v] = true
		}
		_, err := strconv.Atoi(q.Variants[q.CorrectKey])
		assert.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}, levelsOf(questions))
}

func TestValidateQuestions(t *testing.T) {
	valid := domain.Question{
		ID:         "q1",
		Variants:   map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
		CorrectKey: "a",
	}
	tests := []struct {
		name   string
		mutate func(q *domain.Question)
	}{
		{name: "missing id", mutate: func(q *domain.Question) { q.ID = "" }},
		{name: "negative level", mutate: func(q *domain.Question) { q.Level = -1 }},
		{name: "three variants", mutate: func(q *domain.Question) { delete(q.Variants, "d") }},
		{name: "foreign key", mutate: func(q *domain.Question) {
			delete(q.Variants, "d")
			q.Variants["e"] = "5"
		}},
		{name: "correct key not a variant", mutate: func(q *domain.Question) { q.CorrectKey = "z" }},
	}
	require.NoError(t, validateQuestions([]domain.Question{valid}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			q.Variants = map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"}
			tt.mutate(&q)
			assert.Error(t, validateQuestions([]domain.Question{q}))
		})
	}
}

func TestReadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	body := `[{"id":"q1","level":0,"text":"2+2?","variants":{"a":"3","b":"4","c":"5","d":"6"},"correctKey":"b"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	questions, err := readQuestions(path)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "b", questions[0].CorrectKey)
	assert.Equal(t, "4", questions[0].Variants["b"])
}

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"start", "migrate", "seed"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ladder-quiz-service/internal/domain"
	"ladder-quiz-service/internal/infra/postgres/migrations"
)

func TestGameModelRoundTrip(t *testing.T) {
	created := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	finished := created.Add(3 * time.Minute)
	rec := domain.GameRecord{
		ID:      "g1",
		UserID:  "u1",
		Settled: true,
		GameState: domain.GameState{
			CurrentLevel: 3,
			Outcome:      domain.OutcomeCashedOut,
			CreatedAt:    created,
			FinishedAt:   &finished,
			FinalPrize:   300,
			HelpsUsed:    []domain.HelpKind{domain.HelpAudience},
			Questions: []domain.Question{
				{ID: "q0", Level: 0, Variants: map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"}, CorrectKey: "a"},
				{ID: "q1", Level: 1, Variants: map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"}, CorrectKey: "d"},
			},
		},
	}

	model := toGameModel(rec)
	assert.Equal(t, "cashed_out", model.Outcome)

	questions := make([]gameQuestionModel, len(rec.Questions))
	for i, q := range rec.Questions {
		questions[i] = gameQuestionModel{GameID: rec.ID, Level: i, Question: q}
	}
	assert.Equal(t, rec, model.record(questions))
}

func TestGameModelNeverStoresNullHelps(t *testing.T) {
	model := toGameModel(domain.GameRecord{ID: "g1", GameState: domain.GameState{Outcome: domain.OutcomeNone}})
	require.NotNil(t, model.HelpsUsed)
	assert.Empty(t, model.HelpsUsed)
}

func TestMigrationsRegistered(t *testing.T) {
	ms := migrations.Migrations.Sorted()
	require.Len(t, ms, 2)
	assert.Equal(t, "2024112201", ms[0].Name)
	assert.Equal(t, "2024112202", ms[1].Name)
}

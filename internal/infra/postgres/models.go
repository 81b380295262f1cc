package postgres

import (
	"time"

	"github.com/uptrace/bun"
	"ladder-quiz-service/internal/domain"
)

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID         string            `bun:"id,pk"`
	Level      int               `bun:"level,notnull"`
	Text       string            `bun:"text,notnull"`
	Variants   map[string]string `bun:"variants,type:jsonb,notnull"`
	CorrectKey string            `bun:"correct_key,notnull"`
}

type gameModel struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID           string            `bun:"id,pk"`
	UserID       string            `bun:"user_id,notnull"`
	CurrentLevel int               `bun:"current_level,notnull"`
	Outcome      string            `bun:"outcome,notnull"`
	CreatedAt    time.Time         `bun:"created_at,notnull"`
	FinishedAt   *time.Time        `bun:"finished_at"`
	FinalPrize   int               `bun:"final_prize,notnull"`
	HelpsUsed    []domain.HelpKind `bun:"helps_used,type:jsonb,notnull"`
	Settled      bool              `bun:"settled,notnull"`
}

type gameQuestionModel struct {
	bun.BaseModel `bun:"table:game_questions,alias:gq"`

	GameID   string          `bun:"game_id,pk"`
	Level    int             `bun:"level,pk"`
	Question domain.Question `bun:"question,type:jsonb,notnull"`
}

func toGameModel(rec domain.GameRecord) gameModel {
	helps := rec.HelpsUsed
	if helps == nil {
		helps = []domain.HelpKind{}
	}
	return gameModel{
		ID:           rec.ID,
		UserID:       rec.UserID,
		CurrentLevel: rec.CurrentLevel,
		Outcome:      string(rec.Outcome),
		CreatedAt:    rec.CreatedAt,
		FinishedAt:   rec.FinishedAt,
		FinalPrize:   rec.FinalPrize,
		HelpsUsed:    helps,
		Settled:      rec.Settled,
	}
}

func (m gameModel) record(questions []gameQuestionModel) domain.GameRecord {
	qs := make([]domain.Question, len(questions))
	for i, q := range questions {
		qs[i] = q.Question
	}
	return domain.GameRecord{
		ID:      m.ID,
		UserID:  m.UserID,
		Settled: m.Settled,
		GameState: domain.GameState{
			CurrentLevel: m.CurrentLevel,
			Outcome:      domain.Outcome(m.Outcome),
			CreatedAt:    m.CreatedAt,
			FinishedAt:   m.FinishedAt,
			FinalPrize:   m.FinalPrize,
			HelpsUsed:    m.HelpsUsed,
			Questions:    qs,
		},
	}
}

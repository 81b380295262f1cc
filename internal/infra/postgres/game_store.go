package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"ladder-quiz-service/internal/domain"
)

const activeGameIndex = "games_one_active_per_user"

// GameStore persists games and their assigned questions with bun.
// The partial unique index on games(user_id) WHERE outcome='none' keeps one
// active game per user.
type GameStore struct {
	db *bun.DB
}

func NewGameStore(db *bun.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) Create(ctx context.Context, rec domain.GameRecord) error {
	game := toGameModel(rec)
	questions := make([]gameQuestionModel, len(rec.Questions))
	for i, q := range rec.Questions {
		questions[i] = gameQuestionModel{GameID: rec.ID, Level: i, Question: q}
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&game).Exec(ctx); err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&questions).Exec(ctx)
		return err
	})
	if err == nil {
		return nil
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" && pgErr.Field('n') == activeGameIndex {
		active, aerr := s.Active(ctx, rec.UserID)
		if aerr != nil {
			return fmt.Errorf("%w: %v", domain.ErrActiveGameExists, aerr)
		}
		return &domain.ActiveGameError{GameID: active.ID}
	}
	return fmt.Errorf("insert game: %w", err)
}

func (s *GameStore) Get(ctx context.Context, gameID string) (domain.GameRecord, error) {
	var game gameModel
	err := s.db.NewSelect().Model(&game).Where("id = ?", gameID).Scan(ctx)
	return s.withQuestions(ctx, game, err)
}

// Save updates the mutable columns; questions never change after Create.
func (s *GameStore) Save(ctx context.Context, rec domain.GameRecord) error {
	game := toGameModel(rec)
	res, err := s.db.NewUpdate().
		Model(&game).
		Column("current_level", "outcome", "finished_at", "final_prize", "helps_used", "settled").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrGameNotFound
	}
	return nil
}

func (s *GameStore) Active(ctx context.Context, userID string) (domain.GameRecord, error) {
	var game gameModel
	err := s.db.NewSelect().
		Model(&game).
		Where("user_id = ?", userID).
		Where("outcome = ?", string(domain.OutcomeNone)).
		Limit(1).
		Scan(ctx)
	return s.withQuestions(ctx, game, err)
}

// ListByUser returns the user's games, newest first.
func (s *GameStore) ListByUser(ctx context.Context, userID string) ([]domain.GameRecord, error) {
	var games []gameModel
	err := s.db.NewSelect().
		Model(&games).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		return nil, nil
	}

	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	var questions []gameQuestionModel
	err = s.db.NewSelect().
		Model(&questions).
		Where("game_id IN (?)", bun.In(ids)).
		Order("game_id", "level").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list game questions: %w", err)
	}
	byGame := make(map[string][]gameQuestionModel, len(games))
	for _, q := range questions {
		byGame[q.GameID] = append(byGame[q.GameID], q)
	}

	records := make([]domain.GameRecord, len(games))
	for i, g := range games {
		records[i] = g.record(byGame[g.ID])
	}
	return records, nil
}

func (s *GameStore) withQuestions(ctx context.Context, game gameModel, err error) (domain.GameRecord, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("load game: %w", err)
	}
	var questions []gameQuestionModel
	err = s.db.NewSelect().
		Model(&questions).
		Where("game_id = ?", game.ID).
		Order("level ASC").
		Scan(ctx)
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("load game questions: %w", err)
	}
	return game.record(questions), nil
}

// SeedQuestions upserts questions into the bank.
func SeedQuestions(ctx context.Context, db *bun.DB, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	models := make([]questionModel, len(questions))
	for i, q := range questions {
		models[i] = questionModel{
			ID:         q.ID,
			Level:      q.Level,
			Text:       q.Text,
			Variants:   q.Variants,
			CorrectKey: q.CorrectKey,
		}
	}
	res, err := db.NewInsert().
		Model(&models).
		On("CONFLICT (id) DO UPDATE").
		Set("level = EXCLUDED.level").
		Set("text = EXCLUDED.text").
		Set("variants = EXCLUDED.variants").
		Set("correct_key = EXCLUDED.correct_key").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"ladder-quiz-service/internal/domain"
)

// QuestionLoader loads level pools from the questions table.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadLevel(ctx context.Context, level int) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, level, text, variants, correct_key FROM questions WHERE level=$1 ORDER BY id`, level)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var pool []domain.Question
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.Level, &q.Text, &raw, &q.CorrectKey); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Variants); err != nil {
			return nil, fmt.Errorf("unmarshal variants of %s: %w", q.ID, err)
		}
		pool = append(pool, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: level %d", domain.ErrQuestionNotFound, level)
	}
	return pool, nil
}

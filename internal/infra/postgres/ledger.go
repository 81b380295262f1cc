package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"ladder-quiz-service/internal/domain"
)

// Ledger stores balances in accounts; credits records which games were paid out.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Credit adds amount to the user's balance unless gameID was already credited.
func (l *Ledger) Credit(ctx context.Context, userID, gameID string, amount int) error {
	err := l.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO credits (game_id, user_id, amount) VALUES ($1, $2, $3) ON CONFLICT (game_id) DO NOTHING`,
			gameID, userID, amount)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO accounts (user_id, balance) VALUES ($1, $2)
			 ON CONFLICT (user_id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance`,
			userID, amount)
		return err
	})
	if err != nil {
		return fmt.Errorf("credit game %s: %w", gameID, err)
	}
	return nil
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	var balance int64
	err := l.pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id=$1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load balance: %w", err)
	}
	return int(balance), nil
}

// TopBalances ranks players by balance, ties broken by user id.
func (l *Ledger) TopBalances(ctx context.Context, limit int) ([]domain.PlayerBalance, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT user_id, balance FROM accounts ORDER BY balance DESC, user_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("rank balances: %w", err)
	}
	defer rows.Close()

	var out []domain.PlayerBalance
	for rows.Next() {
		var (
			userID  string
			balance int64
		)
		if err := rows.Scan(&userID, &balance); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, domain.PlayerBalance{UserID: userID, Balance: int(balance)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rank balances: %w", err)
	}
	return out, nil
}

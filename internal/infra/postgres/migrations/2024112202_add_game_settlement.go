package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
ALTER TABLE games ADD COLUMN IF NOT EXISTS settled BOOLEAN NOT NULL DEFAULT false;
UPDATE games SET settled = true WHERE outcome <> 'none';
CREATE INDEX IF NOT EXISTS games_unsettled_idx ON games (id) WHERE outcome <> 'none' AND NOT settled;
CREATE INDEX IF NOT EXISTS accounts_balance_idx ON accounts (balance DESC, user_id);
`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
DROP INDEX IF EXISTS accounts_balance_idx;
DROP INDEX IF EXISTS games_unsettled_idx;
ALTER TABLE games DROP COLUMN IF EXISTS settled;
`)
			return err
		},
	)
}

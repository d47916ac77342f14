package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WipeRepo clears every entity table; used by snapshot restore only.
type WipeRepo struct {
	pool *pgxpool.Pool
}

func NewWipeRepo(pool *pgxpool.Pool) *WipeRepo {
	return &WipeRepo{pool: pool}
}

// WipeAllTx deletes all rows, children first. Companies cascade their members
// and ledger entries.
func (r *WipeRepo) WipeAllTx(ctx context.Context, tx pgx.Tx) error {
	for _, stmt := range []string{
		"DELETE FROM products",
		"DELETE FROM companies",
		"DELETE FROM students",
		"DELETE FROM classes",
	} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

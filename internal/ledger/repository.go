package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/werlang/busicode-server/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends an entry to a company's ledger. A foreign-key violation means
// the company is gone, reported as ErrNotFound.
func (r *Repository) Insert(ctx context.Context, e *models.LedgerEntry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ledger_entries (company_id, entry_type, description, amount_cents, entry_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq, created_at
	`, e.CompanyID, e.EntryType, e.Description, e.AmountCents, e.EntryDate).Scan(&e.Seq, &e.CreatedAt)
	return translateFK(err)
}

// InsertTx appends an entry inside the given transaction. Composite operations
// (company creation, distribution, sale settlement) use this so the entry and
// the balance mutation land together.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (company_id, entry_type, description, amount_cents, entry_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq, created_at
	`, e.CompanyID, e.EntryType, e.Description, e.AmountCents, e.EntryDate).Scan(&e.Seq, &e.CreatedAt)
	return translateFK(err)
}

// RestoreTx re-inserts an exported entry preserving its dates. A fresh seq is
// assigned; snapshot restore feeds entries in ascending seq order so relative
// history ordering survives.
func (r *Repository) RestoreTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (company_id, entry_type, description, amount_cents, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`, e.CompanyID, e.EntryType, e.Description, e.AmountCents, e.EntryDate, e.CreatedAt).Scan(&e.Seq)
	return translateFK(err)
}

func translateFK(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return models.ErrNotFound
	}
	return err
}

func (r *Repository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT seq, company_id, entry_type, description, amount_cents, entry_date, created_at
		FROM ledger_entries WHERE company_id = $1 ORDER BY seq
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.Seq, &e.CompanyID, &e.EntryType, &e.Description, &e.AmountCents, &e.EntryDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// Totals recomputes the aggregate revenue and expense sums on every call;
// there is no cached running total to diverge from the entry list.
func (r *Repository) Totals(ctx context.Context, companyID uuid.UUID) (revenueCents, expenseCents int64, err error) {
	err = r.pool.QueryRow(ctx, totalsQuery, companyID).Scan(&revenueCents, &expenseCents)
	return revenueCents, expenseCents, err
}

// TotalsTx is Totals inside a transaction, after the company row lock, so a
// distribution sees a profit figure no concurrent operation can move.
func (r *Repository) TotalsTx(ctx context.Context, tx pgx.Tx, companyID uuid.UUID) (revenueCents, expenseCents int64, err error) {
	err = tx.QueryRow(ctx, totalsQuery, companyID).Scan(&revenueCents, &expenseCents)
	return revenueCents, expenseCents, err
}

const totalsQuery = `
	SELECT
		COALESCE(SUM(CASE WHEN entry_type = 'revenue' THEN amount_cents ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN entry_type = 'expense' THEN amount_cents ELSE 0 END), 0)
	FROM ledger_entries WHERE company_id = $1
`

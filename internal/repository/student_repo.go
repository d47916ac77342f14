package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/werlang/busicode-server/internal/models"
)

type StudentRepo struct {
	pool *pgxpool.Pool
}

func NewStudentRepo(pool *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{pool: pool}
}

const studentColumns = "id, class_id, name, initial_balance_cents, current_balance_cents, created_at, updated_at"

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.ClassID, &s.Name, &s.InitialBalanceCents, &s.CurrentBalanceCents, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepo) Create(ctx context.Context, s *models.Student) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO students (id, class_id, name, initial_balance_cents, current_balance_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, s.ID, s.ClassID, s.Name, s.InitialBalanceCents, s.CurrentBalanceCents).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// CreateMany inserts a batch of students in one transaction (bulk import).
func (r *StudentRepo) CreateMany(ctx context.Context, students []*models.Student) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, s := range students {
		if err := tx.QueryRow(ctx, `
			INSERT INTO students (id, class_id, name, initial_balance_cents, current_balance_cents)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at
		`, s.ID, s.ClassID, s.Name, s.InitialBalanceCents, s.CurrentBalanceCents).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *StudentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, `
		SELECT `+studentColumns+` FROM students WHERE id = $1
	`, id))
}

func (r *StudentRepo) ListByClass(ctx context.Context, classID uuid.UUID) ([]*models.Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+studentColumns+` FROM students WHERE class_id = $1 ORDER BY name
	`, classID)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

func (r *StudentRepo) List(ctx context.Context) ([]*models.Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+studentColumns+` FROM students ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

func collectStudents(rows pgx.Rows) ([]*models.Student, error) {
	defer rows.Close()
	var list []*models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.ClassID, &s.Name, &s.InitialBalanceCents, &s.CurrentBalanceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// Delete removes the student. Company ledgers keep their historical entries;
// deletion is not a refund.
func (r *StudentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByIDForUpdate locks the student row for update. Call within a transaction.
func (r *StudentRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Student, error) {
	return scanStudent(tx.QueryRow(ctx, `
		SELECT `+studentColumns+` FROM students WHERE id = $1 FOR UPDATE
	`, id))
}

// AddBalance credits the student and returns the new balance.
func (r *StudentRepo) AddBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE students SET current_balance_cents = current_balance_cents + $1, updated_at = now()
		WHERE id = $2
		RETURNING current_balance_cents
	`, amountCents, id).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrNotFound
	}
	return newBalance, err
}

// DeductBalance atomically deducts amountCents if the balance covers it.
// Returns ErrInsufficientFunds when it does not; callers that need to
// distinguish a missing student must look the row up first.
func (r *StudentRepo) DeductBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE students SET current_balance_cents = current_balance_cents - $1, updated_at = now()
		WHERE id = $2 AND current_balance_cents >= $1
		RETURNING current_balance_cents
	`, amountCents, id).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrInsufficientFunds
	}
	return newBalance, err
}

// CreateTx inserts a student preserving balances and timestamps (snapshot restore).
func (r *StudentRepo) CreateTx(ctx context.Context, tx pgx.Tx, s *models.Student) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO students (id, class_id, name, initial_balance_cents, current_balance_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.ClassID, s.Name, s.InitialBalanceCents, s.CurrentBalanceCents, s.CreatedAt, s.UpdatedAt)
	return err
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/werlang/busicode-server/internal/models"
)

type ClassRepo struct {
	pool *pgxpool.Pool
}

func NewClassRepo(pool *pgxpool.Pool) *ClassRepo {
	return &ClassRepo{pool: pool}
}

func (r *ClassRepo) Create(ctx context.Context, c *models.Class) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO classes (id, name)
		VALUES ($1, $2)
		RETURNING created_at
	`, c.ID, c.Name).Scan(&c.CreatedAt)
}

func (r *ClassRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	var c models.Class
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM classes WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClassRepo) List(ctx context.Context) ([]*models.Class, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at FROM classes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Class
	for rows.Next() {
		var c models.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Delete removes the class; enrolled students go with it via FK cascade.
// Companies must be deleted first through the lifecycle service so their
// product cleanup is notified per company.
func (r *ClassRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM classes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateTx inserts a class inside the given transaction (snapshot restore).
func (r *ClassRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.Class) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO classes (id, name, created_at) VALUES ($1, $2, $3)
	`, c.ID, c.Name, c.CreatedAt)
	return err
}

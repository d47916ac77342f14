package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/werlang/busicode-server/internal/models"
)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

const productColumns = "id, company_id, name, price_cents, sales_count, total_cents, launched_at"

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.PriceCents, &p.SalesCount, &p.TotalCents, &p.LaunchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *models.Product) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO products (id, company_id, name, price_cents, sales_count, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING launched_at
	`, p.ID, p.CompanyID, p.Name, p.PriceCents, p.SalesCount, p.TotalCents).Scan(&p.LaunchedAt)
}

func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1
	`, id))
}

// GetByIDForUpdate locks the product row so concurrent sale recordings and
// price edits serialize. Call within a transaction.
func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Product, error) {
	return scanProduct(tx.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE
	`, id))
}

func (r *ProductRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products WHERE company_id = $1 ORDER BY launched_at
	`, companyID)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepo) List(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products ORDER BY launched_at
	`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]*models.Product, error) {
	defer rows.Close()
	var list []*models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.PriceCents, &p.SalesCount, &p.TotalCents, &p.LaunchedAt); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// RecordSale increments the cumulative sale counters. The caller computes
// amountCents from the price read under the same row lock.
func (r *ProductRepo) RecordSale(ctx context.Context, tx pgx.Tx, id uuid.UUID, units, amountCents int64) (*models.Product, error) {
	return scanProduct(tx.QueryRow(ctx, `
		UPDATE products SET sales_count = sales_count + $1, total_cents = total_cents + $2
		WHERE id = $3
		RETURNING `+productColumns+`
	`, units, amountCents, id))
}

// UpdatePrice replaces the price for future sales; historical totals are untouched.
func (r *ProductRepo) UpdatePrice(ctx context.Context, id uuid.UUID, priceCents int64) (*models.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `
		UPDATE products SET price_cents = $1 WHERE id = $2
		RETURNING `+productColumns+`
	`, priceCents, id))
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteByCompanyID removes every product of a deleted company. Invoked by the
// cleanup worker, not by the company transaction itself.
func (r *ProductRepo) DeleteByCompanyID(ctx context.Context, companyID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE company_id = $1", companyID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RestoreTx inserts a product preserving counters and launch time (snapshot restore).
func (r *ProductRepo) RestoreTx(ctx context.Context, tx pgx.Tx, p *models.Product) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO products (id, company_id, name, price_cents, sales_count, total_cents, launched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.CompanyID, p.Name, p.PriceCents, p.SalesCount, p.TotalCents, p.LaunchedAt)
	return err
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/werlang/busicode-server/internal/models"
)

type CompanyRepo struct {
	pool *pgxpool.Pool
}

func NewCompanyRepo(pool *pgxpool.Pool) *CompanyRepo {
	return &CompanyRepo{pool: pool}
}

// CreateTx inserts the company row and its member rows. Call within the
// company-creation transaction so members and the initial capital entry land
// together.
func (r *CompanyRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.Company) error {
	if err := tx.QueryRow(ctx, `
		INSERT INTO companies (id, class_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, c.ID, c.ClassID, c.Name).Scan(&c.CreatedAt); err != nil {
		return err
	}
	for _, m := range c.Members {
		if _, err := tx.Exec(ctx, `
			INSERT INTO company_members (company_id, student_id, contribution_cents)
			VALUES ($1, $2, $3)
		`, c.ID, m.StudentID, m.ContributionCents); err != nil {
			return err
		}
	}
	return nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	err := r.pool.QueryRow(ctx, `
		SELECT id, class_id, name, created_at FROM companies WHERE id = $1
	`, id).Scan(&c.ID, &c.ClassID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	members, err := r.listMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Members = members
	return &c, nil
}

// GetByIDForUpdate locks the company row. Composite operations against a
// company's ledger (distribution, sale settlement) take this lock first so
// they serialize per company.
func (r *CompanyRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	err := tx.QueryRow(ctx, `
		SELECT id, class_id, name, created_at FROM companies WHERE id = $1 FOR UPDATE
	`, id).Scan(&c.ID, &c.ClassID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	members, err := r.listMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Members = members
	return &c, nil
}

func (r *CompanyRepo) listMembers(ctx context.Context, companyID uuid.UUID) ([]models.CompanyMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id, contribution_cents FROM company_members WHERE company_id = $1 ORDER BY student_id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []models.CompanyMember
	for rows.Next() {
		var m models.CompanyMember
		if err := rows.Scan(&m.StudentID, &m.ContributionCents); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *CompanyRepo) ListByClass(ctx context.Context, classID uuid.UUID) ([]*models.Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, class_id, name, created_at FROM companies WHERE class_id = $1 ORDER BY created_at
	`, classID)
	if err != nil {
		return nil, err
	}
	list, err := collectCompanies(rows)
	if err != nil {
		return nil, err
	}
	return r.fillMembers(ctx, list)
}

func (r *CompanyRepo) List(ctx context.Context) ([]*models.Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, class_id, name, created_at FROM companies ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	list, err := collectCompanies(rows)
	if err != nil {
		return nil, err
	}
	return r.fillMembers(ctx, list)
}

func collectCompanies(rows pgx.Rows) ([]*models.Company, error) {
	defer rows.Close()
	var list []*models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.ClassID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (r *CompanyRepo) fillMembers(ctx context.Context, list []*models.Company) ([]*models.Company, error) {
	for _, c := range list {
		members, err := r.listMembers(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Members = members
	}
	return list, nil
}

// ReplaceMembersTx swaps the membership set wholesale. Retained members keep
// their recorded contribution and new members join with zero; historical
// contributions and ledger entries are never rewritten.
func (r *CompanyRepo) ReplaceMembersTx(ctx context.Context, tx pgx.Tx, companyID uuid.UUID, memberIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `
		DELETE FROM company_members WHERE company_id = $1 AND student_id != ALL($2)
	`, companyID, memberIDs); err != nil {
		return err
	}
	for _, id := range memberIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO company_members (company_id, student_id, contribution_cents)
			VALUES ($1, $2, 0)
			ON CONFLICT (company_id, student_id) DO NOTHING
		`, companyID, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTx removes the company; members and ledger entries cascade via FK.
// Products are an external collaborator's data and are removed by the cleanup
// worker, not here.
func (r *CompanyRepo) DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, "DELETE FROM companies WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RestoreTx inserts a company preserving its creation time (snapshot restore).
func (r *CompanyRepo) RestoreTx(ctx context.Context, tx pgx.Tx, c *models.Company) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO companies (id, class_id, name, created_at) VALUES ($1, $2, $3, $4)
	`, c.ID, c.ClassID, c.Name, c.CreatedAt); err != nil {
		return err
	}
	for _, m := range c.Members {
		if _, err := tx.Exec(ctx, `
			INSERT INTO company_members (company_id, student_id, contribution_cents)
			VALUES ($1, $2, $3)
		`, c.ID, m.StudentID, m.ContributionCents); err != nil {
			return err
		}
	}
	return nil
}

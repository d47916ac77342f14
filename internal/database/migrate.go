package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations are applied in order at startup; each statement is idempotent so
// restarts are safe. Note products carries no foreign key to companies: a
// company deletion queues a cleanup job instead of cascading, and the orphaned
// rows are removed asynchronously.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS classes (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id UUID PRIMARY KEY,
		class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		initial_balance_cents BIGINT NOT NULL CHECK (initial_balance_cents >= 0),
		current_balance_cents BIGINT NOT NULL CHECK (current_balance_cents >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id UUID PRIMARY KEY,
		class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_class ON companies(class_id)`,
	`CREATE TABLE IF NOT EXISTS company_members (
		company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		contribution_cents BIGINT NOT NULL CHECK (contribution_cents >= 0),
		PRIMARY KEY (company_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		seq BIGSERIAL PRIMARY KEY,
		company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		entry_type TEXT NOT NULL CHECK (entry_type IN ('expense', 'revenue')),
		description TEXT NOT NULL,
		amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
		entry_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_company ON ledger_entries(company_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		company_id UUID NOT NULL,
		name TEXT NOT NULL,
		price_cents BIGINT NOT NULL CHECK (price_cents > 0),
		sales_count BIGINT NOT NULL DEFAULT 0 CHECK (sales_count >= 0),
		total_cents BIGINT NOT NULL DEFAULT 0 CHECK (total_cents >= 0),
		launched_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_company ON products(company_id)`,
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/werlang/busicode-server/internal/events"
	"github.com/werlang/busicode-server/internal/models"
)

// DistributionCompanyStore resolves and locks the paying company.
type DistributionCompanyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Company, error)
}

// DistributionStudentStore resolves and credits the target student.
type DistributionStudentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Student, error)
	AddBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (int64, error)
}

// DistributionLedger reads the profit figure and posts the payout expense
// inside the same transaction.
type DistributionLedger interface {
	InsertTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
	TotalsTx(ctx context.Context, tx pgx.Tx, companyID uuid.UUID) (revenueCents, expenseCents int64, err error)
}

// DistributionService moves company profit to a student's personal balance.
// The payout expense and the balance credit happen in one transaction;
// crediting without the expense (or vice versa) would break conservation.
type DistributionService struct {
	pool      TxBeginner
	companies DistributionCompanyStore
	students  DistributionStudentStore
	ledger    DistributionLedger
	bus       *events.Bus
}

func NewDistributionService(pool TxBeginner, companies DistributionCompanyStore, students DistributionStudentStore, ledger DistributionLedger, bus *events.Bus) *DistributionService {
	return &DistributionService{pool: pool, companies: companies, students: students, ledger: ledger, bus: bus}
}

type DistributionResult struct {
	Entry                *models.LedgerEntry
	NewBalanceCents      int64
	RemainingProfitCents int64
}

// DistributeProfits pays amountCents of the company's current profit to the
// student. UIs disable the action when profit is zero, but the service
// re-validates under the company row lock regardless.
func (s *DistributionService) DistributeProfits(ctx context.Context, companyID, studentID uuid.UUID, amountCents int64, description string) (*DistributionResult, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: distribution amount must be positive, got %d", models.ErrInvalidAmount, amountCents)
	}
	if description == "" {
		description = models.DescriptionProfitDistribution
	}

	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("company %s: %w", companyID, err)
	}
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", studentID, err)
	}
	if student.ClassID != company.ClassID {
		return nil, fmt.Errorf("%w: student %s is not in the company's class", models.ErrNotFound, student.Name)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the company row first: the profit read and the payout must see a
	// figure no concurrent distribution or sale can move.
	if _, err := s.companies.GetByIDForUpdate(ctx, tx, companyID); err != nil {
		return nil, fmt.Errorf("company %s: %w", companyID, err)
	}
	revenue, expense, err := s.ledger.TotalsTx(ctx, tx, companyID)
	if err != nil {
		return nil, err
	}
	profit := revenue - expense
	if amountCents > profit {
		return nil, fmt.Errorf("%w: requested %s but current profit is %s",
			models.ErrOverDistribution, formatCents(amountCents), formatCents(profit))
	}

	entry := &models.LedgerEntry{
		CompanyID:   companyID,
		EntryType:   models.EntryTypeExpense,
		Description: description,
		AmountCents: amountCents,
		EntryDate:   time.Now(),
	}
	if err := s.ledger.InsertTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if _, err := s.students.GetByIDForUpdate(ctx, tx, studentID); err != nil {
		return nil, fmt.Errorf("student %s: %w", studentID, err)
	}
	balance, err := s.students.AddBalance(ctx, tx, studentID, amountCents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.BalanceChanged{StudentID: studentID, NewBalanceCents: balance})
	return &DistributionResult{
		Entry:                entry,
		NewBalanceCents:      balance,
		RemainingProfitCents: profit - amountCents,
	}, nil
}

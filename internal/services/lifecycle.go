package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/werlang/busicode-server/internal/cleanup"
	"github.com/werlang/busicode-server/internal/events"
	"github.com/werlang/busicode-server/internal/models"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LifecycleStudentStore is the minimal student repository interface for the
// company lifecycle.
type LifecycleStudentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Student, error)
	DeductBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (int64, error)
}

// LifecycleCompanyStore is the minimal company repository interface for the
// company lifecycle.
type LifecycleCompanyStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]*models.Company, error)
	ReplaceMembersTx(ctx context.Context, tx pgx.Tx, companyID uuid.UUID, memberIDs []uuid.UUID) error
	DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// EntryWriter appends ledger entries inside a transaction.
type EntryWriter interface {
	InsertTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
}

// InsertCleanupTxFunc enqueues a product cleanup job within the given
// transaction. Provided by main using river.Client.InsertTx.
type InsertCleanupTxFunc func(ctx context.Context, tx pgx.Tx, args cleanup.CompanyCleanupArgs) error

// CompanyService orchestrates company creation, deletion, and membership
// edits. Creation debits members and posts the initial capital entry as one
// unit; a failure anywhere rolls back everything.
type CompanyService struct {
	pool          TxBeginner
	students      LifecycleStudentStore
	companies     LifecycleCompanyStore
	entries       EntryWriter
	insertCleanup InsertCleanupTxFunc
	bus           *events.Bus
}

func NewCompanyService(pool TxBeginner, students LifecycleStudentStore, companies LifecycleCompanyStore, entries EntryWriter, insertCleanup InsertCleanupTxFunc, bus *events.Bus) *CompanyService {
	return &CompanyService{
		pool:          pool,
		students:      students,
		companies:     companies,
		entries:       entries,
		insertCleanup: insertCleanup,
		bus:           bus,
	}
}

// Contribution pairs a member student with the capital they commit. A member
// may contribute zero as long as the company's total capital is positive.
type Contribution struct {
	StudentID   uuid.UUID
	AmountCents int64
}

type CreateCompanyResult struct {
	Company           *models.Company
	InitialEntry      *models.LedgerEntry
	TotalCapitalCents int64
	// NewBalances maps each debited student to their balance after the debit.
	NewBalances map[uuid.UUID]int64
}

// CreateCompany validates, then atomically creates the company, debits each
// member's contribution, and posts the "Capital Inicial" revenue entry.
// Validation order: required fields, per-member funds (first violation aborts
// with the student's name and asked amount), then positive total capital.
func (s *CompanyService) CreateCompany(ctx context.Context, name string, classID uuid.UUID, contributions []Contribution) (*CreateCompanyResult, error) {
	if name == "" || classID == uuid.Nil || len(contributions) == 0 {
		return nil, fmt.Errorf("%w: name, class and at least one member are required", models.ErrMissingFields)
	}

	seen := make(map[uuid.UUID]bool, len(contributions))
	var total int64
	for _, c := range contributions {
		if c.AmountCents < 0 {
			return nil, fmt.Errorf("%w: contribution must not be negative, got %d", models.ErrInvalidAmount, c.AmountCents)
		}
		if seen[c.StudentID] {
			return nil, fmt.Errorf("%w: student %s listed twice", models.ErrMissingFields, c.StudentID)
		}
		seen[c.StudentID] = true
		total += c.AmountCents
	}

	members := make([]models.CompanyMember, 0, len(contributions))
	for _, c := range contributions {
		st, err := s.students.GetByID(ctx, c.StudentID)
		if err != nil {
			return nil, fmt.Errorf("student %s: %w", c.StudentID, err)
		}
		if st.ClassID != classID {
			return nil, fmt.Errorf("%w: student %s is not enrolled in this class", models.ErrNotFound, st.Name)
		}
		if c.AmountCents > st.CurrentBalanceCents {
			return nil, fmt.Errorf("%w: %s has %s but a contribution of %s was requested",
				models.ErrInsufficientFunds, st.Name, formatCents(st.CurrentBalanceCents), formatCents(c.AmountCents))
		}
		members = append(members, models.CompanyMember{StudentID: c.StudentID, ContributionCents: c.AmountCents})
	}

	if total <= 0 {
		return nil, fmt.Errorf("%w: a company cannot be created with zero total capital", models.ErrInvalidAmount)
	}

	company := &models.Company{ID: uuid.New(), ClassID: classID, Name: name, Members: members}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.companies.CreateTx(ctx, tx, company); err != nil {
		return nil, err
	}

	// Lock and debit members in deterministic order to avoid deadlocks when
	// two companies are created over an overlapping member set.
	debits := make([]models.CompanyMember, len(members))
	copy(debits, members)
	sort.Slice(debits, func(i, j int) bool { return debits[i].StudentID.String() < debits[j].StudentID.String() })

	newBalances := make(map[uuid.UUID]int64, len(debits))
	for _, m := range debits {
		if m.ContributionCents == 0 {
			continue
		}
		st, err := s.students.GetByIDForUpdate(ctx, tx, m.StudentID)
		if err != nil {
			return nil, fmt.Errorf("student %s: %w", m.StudentID, err)
		}
		balance, err := s.students.DeductBalance(ctx, tx, m.StudentID, m.ContributionCents)
		if errors.Is(err, models.ErrInsufficientFunds) {
			// The balance moved between validation and the debit; the
			// conditional update re-checks so nobody ever goes negative.
			return nil, fmt.Errorf("%w: %s has %s but a contribution of %s was requested",
				models.ErrInsufficientFunds, st.Name, formatCents(st.CurrentBalanceCents), formatCents(m.ContributionCents))
		}
		if err != nil {
			return nil, err
		}
		newBalances[m.StudentID] = balance
	}

	entry := &models.LedgerEntry{
		CompanyID:   company.ID,
		EntryType:   models.EntryTypeRevenue,
		Description: models.DescriptionInitialCapital,
		AmountCents: total,
		EntryDate:   time.Now(),
	}
	if err := s.entries.InsertTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.CompanyCreated{
		CompanyID:         company.ID,
		ClassID:           classID,
		MemberIDs:         company.MemberIDs(),
		TotalCapitalCents: total,
	})
	for id, balance := range newBalances {
		s.bus.Publish(ctx, events.BalanceChanged{StudentID: id, NewBalanceCents: balance})
	}

	return &CreateCompanyResult{
		Company:           company,
		InitialEntry:      entry,
		TotalCapitalCents: total,
		NewBalances:       newBalances,
	}, nil
}

// DeleteCompany removes the company (ledger and membership go with it) and
// queues product cleanup in the same transaction. Contributions already
// deducted stay deducted; deletion is not a refund.
func (s *CompanyService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("company %s: %w", id, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.companies.DeleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err := s.insertCleanup(ctx, tx, cleanup.CompanyCleanupArgs{CompanyID: id}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.CompanyDeleted{CompanyID: id, ClassID: c.ClassID})
	return nil
}

// UpdateCompanyStudents replaces the membership set wholesale. Forward-looking
// only: historical contributions and ledger entries are never adjusted.
func (s *CompanyService) UpdateCompanyStudents(ctx context.Context, companyID uuid.UUID, memberIDs []uuid.UUID) (*models.Company, error) {
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("%w: a company needs at least one member", models.ErrMissingFields)
	}
	c, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("company %s: %w", companyID, err)
	}
	for _, id := range memberIDs {
		st, err := s.students.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("student %s: %w", id, err)
		}
		if st.ClassID != c.ClassID {
			return nil, fmt.Errorf("%w: student %s is not enrolled in this class", models.ErrNotFound, st.Name)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	if err := s.companies.ReplaceMembersTx(ctx, tx, companyID, memberIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.companies.GetByID(ctx, companyID)
}

// DeleteCompaniesByClass bulk-deletes a class's companies in one transaction,
// queueing product cleanup and (after commit) notifying per company so
// dependents can react individually.
func (s *CompanyService) DeleteCompaniesByClass(ctx context.Context, classID uuid.UUID) ([]*models.Company, error) {
	list, err := s.companies.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	for _, c := range list {
		if err := s.companies.DeleteTx(ctx, tx, c.ID); err != nil {
			return nil, err
		}
		if err := s.insertCleanup(ctx, tx, cleanup.CompanyCleanupArgs{CompanyID: c.ID}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	for _, c := range list {
		s.bus.Publish(ctx, events.CompanyDeleted{CompanyID: c.ID, ClassID: classID})
	}
	return list, nil
}

// formatCents renders an amount for error messages, e.g. "R$ 12.50".
func formatCents(cents int64) string {
	return fmt.Sprintf("R$ %d.%02d", cents/100, cents%100)
}

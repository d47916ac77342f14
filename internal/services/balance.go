package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/werlang/busicode-server/internal/events"
	"github.com/werlang/busicode-server/internal/models"
)

// BalanceStudentStore is the minimal student repository interface for personal
// balance operations.
type BalanceStudentStore interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Student, error)
	AddBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (int64, error)
	DeductBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amountCents int64) (int64, error)
}

// BalanceService mutates a student's personal balance. It holds no other
// state and never notifies views itself beyond the BalanceChanged event;
// dependent screens subscribe to that.
type BalanceService struct {
	pool     TxBeginner
	students BalanceStudentStore
	bus      *events.Bus
}

func NewBalanceService(pool TxBeginner, students BalanceStudentStore, bus *events.Bus) *BalanceService {
	return &BalanceService{pool: pool, students: students, bus: bus}
}

// AddBalance credits the student. Rejects non-positive amounts.
func (s *BalanceService) AddBalance(ctx context.Context, studentID uuid.UUID, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, fmt.Errorf("%w: deposit must be positive, got %d", models.ErrInvalidAmount, amountCents)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.students.GetByIDForUpdate(ctx, tx, studentID); err != nil {
		return 0, fmt.Errorf("student %s: %w", studentID, err)
	}
	balance, err := s.students.AddBalance(ctx, tx, studentID, amountCents)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.BalanceChanged{StudentID: studentID, NewBalanceCents: balance})
	return balance, nil
}

// DeductBalance debits the student. The conditional update in the store is
// the single gate preventing negative balances anywhere in the system: a
// deduction exceeding the balance is rejected, never clamped.
func (s *BalanceService) DeductBalance(ctx context.Context, studentID uuid.UUID, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, fmt.Errorf("%w: withdrawal must be positive, got %d", models.ErrInvalidAmount, amountCents)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	st, err := s.students.GetByIDForUpdate(ctx, tx, studentID)
	if err != nil {
		return 0, fmt.Errorf("student %s: %w", studentID, err)
	}
	balance, err := s.students.DeductBalance(ctx, tx, studentID, amountCents)
	if errors.Is(err, models.ErrInsufficientFunds) {
		return 0, fmt.Errorf("%w: %s has %s but %s was requested",
			models.ErrInsufficientFunds, st.Name, formatCents(st.CurrentBalanceCents), formatCents(amountCents))
	}
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	s.bus.Publish(ctx, events.BalanceChanged{StudentID: studentID, NewBalanceCents: balance})
	return balance, nil
}

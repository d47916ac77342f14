package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/werlang/busicode-server/internal/models"
)

// EntryStore is the minimal entry storage interface the service needs.
type EntryStore interface {
	Insert(ctx context.Context, e *models.LedgerEntry) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.LedgerEntry, error)
	Totals(ctx context.Context, companyID uuid.UUID) (revenueCents, expenseCents int64, err error)
}

// Service owns a company's ledger view: append-only expense/revenue entries,
// aggregate totals, and the activity history.
type Service struct {
	entries EntryStore
}

func NewService(entries EntryStore) *Service {
	return &Service{entries: entries}
}

// AddExpense appends an expense entry. date nil means now.
func (s *Service) AddExpense(ctx context.Context, companyID uuid.UUID, description string, amountCents int64, date *time.Time) (*models.LedgerEntry, error) {
	return s.add(ctx, companyID, models.EntryTypeExpense, description, amountCents, date)
}

// AddRevenue appends a revenue entry. date nil means now.
func (s *Service) AddRevenue(ctx context.Context, companyID uuid.UUID, description string, amountCents int64, date *time.Time) (*models.LedgerEntry, error) {
	return s.add(ctx, companyID, models.EntryTypeRevenue, description, amountCents, date)
}

func (s *Service) add(ctx context.Context, companyID uuid.UUID, entryType, description string, amountCents int64, date *time.Time) (*models.LedgerEntry, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: entry amount must be positive, got %d", models.ErrInvalidAmount, amountCents)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description", models.ErrMissingFields)
	}
	entryDate := time.Now()
	if date != nil {
		entryDate = *date
	}
	e := &models.LedgerEntry{
		CompanyID:   companyID,
		EntryType:   entryType,
		Description: description,
		AmountCents: amountCents,
		EntryDate:   entryDate,
	}
	if err := s.entries.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) TotalRevenues(ctx context.Context, companyID uuid.UUID) (int64, error) {
	revenue, _, err := s.entries.Totals(ctx, companyID)
	return revenue, err
}

func (s *Service) TotalExpenses(ctx context.Context, companyID uuid.UUID) (int64, error) {
	_, expense, err := s.entries.Totals(ctx, companyID)
	return expense, err
}

// Profit is total revenues minus total expenses; distributions post expenses,
// so this is also the amount available to distribute.
func (s *Service) Profit(ctx context.Context, companyID uuid.UUID) (int64, error) {
	revenue, expense, err := s.entries.Totals(ctx, companyID)
	if err != nil {
		return 0, err
	}
	return revenue - expense, nil
}

// ActivityItem is a ledger entry annotated with its signed display amount.
type ActivityItem struct {
	*models.LedgerEntry
	Display string `json:"display"`
}

// ActivityHistory returns the company's entries newest-first.
func (s *Service) ActivityHistory(ctx context.Context, companyID uuid.UUID) ([]ActivityItem, error) {
	entries, err := s.entries.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq > entries[j].Seq })
	items := make([]ActivityItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, ActivityItem{LedgerEntry: e, Display: e.DisplayAmount()})
	}
	return items, nil
}

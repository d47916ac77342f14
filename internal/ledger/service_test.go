package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/werlang/busicode-server/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory EntryStore mock.
// ---------------------------------------------------------------------------

type mockStore struct {
	mu      sync.Mutex
	nextSeq int64
	entries []*models.LedgerEntry
}

func (m *mockStore) Insert(_ context.Context, e *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	e.Seq = m.nextSeq
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockStore) ListByCompany(_ context.Context, companyID uuid.UUID) ([]*models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range m.entries {
		if e.CompanyID == companyID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) Totals(_ context.Context, companyID uuid.UUID) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var revenue, expense int64
	for _, e := range m.entries {
		if e.CompanyID != companyID {
			continue
		}
		if e.EntryType == models.EntryTypeRevenue {
			revenue += e.AmountCents
		} else {
			expense += e.AmountCents
		}
	}
	return revenue, expense, nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAddExpenseAndRevenue(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	companyID := uuid.New()
	ctx := context.Background()

	expense, err := svc.AddExpense(ctx, companyID, "Embalagens", 2000, nil)
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if expense.EntryType != models.EntryTypeExpense {
		t.Errorf("entry type: got %q, want expense", expense.EntryType)
	}
	if expense.EntryDate.IsZero() {
		t.Error("nil date should default to now")
	}

	when := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	revenue, err := svc.AddRevenue(ctx, companyID, "Feira de ciências", 5000, &when)
	if err != nil {
		t.Fatalf("AddRevenue: %v", err)
	}
	if !revenue.EntryDate.Equal(when) {
		t.Errorf("entry date: got %v, want %v", revenue.EntryDate, when)
	}

	profit, err := svc.Profit(ctx, companyID)
	if err != nil {
		t.Fatalf("Profit: %v", err)
	}
	if profit != 3000 {
		t.Errorf("profit: got %d, want 3000", profit)
	}
}

func TestAddEntry_Validation(t *testing.T) {
	svc := NewService(&mockStore{})
	companyID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddExpense(ctx, companyID, "X", 0, nil); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.AddRevenue(ctx, companyID, "X", -100, nil); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("negative amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.AddExpense(ctx, companyID, "", 100, nil); !errors.Is(err, models.ErrMissingFields) {
		t.Errorf("empty description: expected ErrMissingFields, got %v", err)
	}
}

func TestTotals(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	companyID := uuid.New()
	other := uuid.New()
	ctx := context.Background()

	svc.AddRevenue(ctx, companyID, "Capital Inicial", 10000, nil)
	svc.AddRevenue(ctx, companyID, "Venda", 2000, nil)
	svc.AddExpense(ctx, companyID, "Material", 4500, nil)
	svc.AddRevenue(ctx, other, "Capital Inicial", 99999, nil)

	revenues, err := svc.TotalRevenues(ctx, companyID)
	if err != nil {
		t.Fatalf("TotalRevenues: %v", err)
	}
	if revenues != 12000 {
		t.Errorf("revenues: got %d, want 12000", revenues)
	}
	expenses, err := svc.TotalExpenses(ctx, companyID)
	if err != nil {
		t.Fatalf("TotalExpenses: %v", err)
	}
	if expenses != 4500 {
		t.Errorf("expenses: got %d, want 4500", expenses)
	}
}

func TestActivityHistory(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	companyID := uuid.New()
	ctx := context.Background()

	svc.AddRevenue(ctx, companyID, "Capital Inicial", 5000, nil)
	svc.AddExpense(ctx, companyID, "Embalagens", 2000, nil)
	svc.AddRevenue(ctx, companyID, "Venda: Brigadeiro (3 un)", 300, nil)

	items, err := svc.ActivityHistory(ctx, companyID)
	if err != nil {
		t.Fatalf("ActivityHistory: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items: got %d, want 3", len(items))
	}

	// Newest first.
	if items[0].Description != "Venda: Brigadeiro (3 un)" || items[2].Description != "Capital Inicial" {
		t.Errorf("history order wrong: %q ... %q", items[0].Description, items[2].Description)
	}

	// Signed display amounts.
	if items[0].Display != "+R$ 3.00" {
		t.Errorf("revenue display: got %q, want \"+R$ 3.00\"", items[0].Display)
	}
	if items[1].Display != "-R$ 20.00" {
		t.Errorf("expense display: got %q, want \"-R$ 20.00\"", items[1].Display)
	}
	if items[2].Display != "+R$ 50.00" {
		t.Errorf("capital display: got %q, want \"+R$ 50.00\"", items[2].Display)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/werlang/busicode-server/internal/ledger"
	"github.com/werlang/busicode-server/internal/models"
	"github.com/werlang/busicode-server/internal/services"
)

// CompanyLifecycle covers creation, membership edits, and deletion.
type CompanyLifecycle interface {
	CreateCompany(ctx context.Context, name string, classID uuid.UUID, contributions []services.Contribution) (*services.CreateCompanyResult, error)
	UpdateCompanyStudents(ctx context.Context, companyID uuid.UUID, memberIDs []uuid.UUID) (*models.Company, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) error
}

// CompanyStore is the read side of the company repository.
type CompanyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
}

// LedgerOps is the company ledger surface: manual entries, totals, history.
type LedgerOps interface {
	AddExpense(ctx context.Context, companyID uuid.UUID, description string, amountCents int64, date *time.Time) (*models.LedgerEntry, error)
	AddRevenue(ctx context.Context, companyID uuid.UUID, description string, amountCents int64, date *time.Time) (*models.LedgerEntry, error)
	TotalRevenues(ctx context.Context, companyID uuid.UUID) (int64, error)
	TotalExpenses(ctx context.Context, companyID uuid.UUID) (int64, error)
	ActivityHistory(ctx context.Context, companyID uuid.UUID) ([]ledger.ActivityItem, error)
}

// Distributor pays company profit out to a member's personal balance.
type Distributor interface {
	DistributeProfits(ctx context.Context, companyID, studentID uuid.UUID, amountCents int64, description string) (*services.DistributionResult, error)
}

// CompanyHandler serves /api/companies and class-scoped company endpoints.
type CompanyHandler struct {
	Lifecycle   CompanyLifecycle
	Companies   CompanyStore
	Ledger      LedgerOps
	Distributor Distributor
	Logger      *slog.Logger
}

type createCompanyRequest struct {
	Name          string    `json:"name"`
	ClassID       uuid.UUID `json:"class_id"`
	Contributions []struct {
		StudentID   uuid.UUID `json:"student_id"`
		AmountCents int64     `json:"amount_cents"`
	} `json:"contributions"`
}

type createCompanyResponse struct {
	Company           *models.Company     `json:"company"`
	InitialEntry      *models.LedgerEntry `json:"initial_entry"`
	TotalCapitalCents int64               `json:"total_capital_cents"`
	NewBalances       map[uuid.UUID]int64 `json:"new_balances"`
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	contributions := make([]services.Contribution, 0, len(req.Contributions))
	for _, c := range req.Contributions {
		contributions = append(contributions, services.Contribution{StudentID: c.StudentID, AmountCents: c.AmountCents})
	}
	result, err := h.Lifecycle.CreateCompany(r.Context(), req.Name, req.ClassID, contributions)
	if err != nil {
		writeError(w, h.Logger, "create company", err)
		return
	}
	writeJSON(w, http.StatusCreated, createCompanyResponse{
		Company:           result.Company,
		InitialEntry:      result.InitialEntry,
		TotalCapitalCents: result.TotalCapitalCents,
		NewBalances:       result.NewBalances,
	})
}

// ListByClass handles GET /api/classes/{id}/companies.
func (h *CompanyHandler) ListByClass(w http.ResponseWriter, r *http.Request) {
	classID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid class id"})
		return
	}
	list, err := h.Companies.ListByClass(r.Context(), classID)
	if err != nil {
		writeError(w, h.Logger, "list companies", err)
		return
	}
	if list == nil {
		list = []*models.Company{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Companies.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, "list companies", err)
		return
	}
	if list == nil {
		list = []*models.Company{}
	}
	writeJSON(w, http.StatusOK, list)
}

type companyView struct {
	*models.Company
	TotalRevenuesCents int64 `json:"total_revenues_cents"`
	TotalExpensesCents int64 `json:"total_expenses_cents"`
	ProfitCents        int64 `json:"profit_cents"`
}

// Get returns the company with its recomputed financial summary.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
		return
	}
	c, err := h.Companies.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "get company", err)
		return
	}
	revenues, err := h.Ledger.TotalRevenues(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "get company", err)
		return
	}
	expenses, err := h.Ledger.TotalExpenses(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "get company", err)
		return
	}
	writeJSON(w, http.StatusOK, companyView{
		Company:            c,
		TotalRevenuesCents: revenues,
		TotalExpensesCents: expenses,
		ProfitCents:        revenues - expenses,
	})
}

func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
		return
	}
	if err := h.Lifecycle.DeleteCompany(r.Context(), id); err != nil {
		writeError(w, h.Logger, "delete company", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateStudentsRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids"`
}

// UpdateStudents handles PUT /api/companies/{id}/students.
func (h *CompanyHandler) UpdateStudents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
		return
	}
	var req updateStudentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	c, err := h.Lifecycle.UpdateCompanyStudents(r.Context(), id, req.StudentIDs)
	if err != nil {
		writeError(w, h.Logger, "update company students", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type entryRequest struct {
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	EntryDate   *time.Time `json:"entry_date"`
}

// AddExpense handles POST /api/companies/{id}/expenses.
func (h *CompanyHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, "add expense", h.Ledger.AddExpense)
}

// AddRevenue handles POST /api/companies/{id}/revenues.
func (h *CompanyHandler) AddRevenue(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, "add revenue", h.Ledger.AddRevenue)
}

func (h *CompanyHandler) addEntry(w http.ResponseWriter, r *http.Request, op string, add func(context.Context, uuid.UUID, string, int64, *time.Time) (*models.LedgerEntry, error)) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
		return
	}
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	entry, err := add(r.Context(), id, req.Description, req.AmountCents, req.EntryDate)
	if err != nil {
		writeError(w, h.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// History handles GET /api/companies/{id}/history, newest entries first.
func (h *CompanyHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
		return
	}
	if _, err := h.Companies.GetByID(r.Context(), id); err != nil {
		writeError(w, h.Logger, "company history", err)
		return
	}
	items, err := h.Ledger.ActivityHistory(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "company history", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type distributeRequest struct {
	StudentID   uuid.UUID `json:"student_id"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
}

type distributeResponse struct {
	Entry                *models.LedgerEntry `json:"entry"`
	NewBalanceCents      int64               `json:"new_balance_cents"`
	RemainingProfitCents int64               `json:"remaining_profit_cents"`
}

// Distribute handles POST /api/companies/{id}/distribute.
func (h *CompanyHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
		return
	}
	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	result, err := h.Distributor.DistributeProfits(r.Context(), id, req.StudentID, req.AmountCents, req.Description)
	if err != nil {
		writeError(w, h.Logger, "distribute profits", err)
		return
	}
	writeJSON(w, http.StatusOK, distributeResponse{
		Entry:                result.Entry,
		NewBalanceCents:      result.NewBalanceCents,
		RemainingProfitCents: result.RemainingProfitCents,
	})
}

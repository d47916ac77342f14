package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/werlang/busicode-server/internal/models"
)

// StudentStore is the subset of the student repository needed by the handler.
type StudentStore interface {
	Create(ctx context.Context, s *models.Student) error
	CreateMany(ctx context.Context, students []*models.Student) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]*models.Student, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BalanceOps exposes the personal balance operations.
type BalanceOps interface {
	AddBalance(ctx context.Context, studentID uuid.UUID, amountCents int64) (int64, error)
	DeductBalance(ctx context.Context, studentID uuid.UUID, amountCents int64) (int64, error)
}

// ClassGetter resolves the owning class on enrollment.
type ClassGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Class, error)
}

// StudentHandler serves /api/students and class-scoped student endpoints.
type StudentHandler struct {
	Students StudentStore
	Balance  BalanceOps
	Classes  ClassGetter
	Logger   *slog.Logger
}

type createStudentRequest struct {
	Name                string `json:"name"`
	InitialBalanceCents int64  `json:"initial_balance_cents"`
}

// Create handles POST /api/classes/{id}/students.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	classID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid class id"})
		return
	}
	var req createStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if req.Name == "" {
		writeError(w, h.Logger, "create student", fmt.Errorf("%w: name", models.ErrMissingFields))
		return
	}
	if req.InitialBalanceCents < 0 {
		writeError(w, h.Logger, "create student",
			fmt.Errorf("%w: initial balance must not be negative", models.ErrInvalidAmount))
		return
	}
	if _, err := h.Classes.GetByID(r.Context(), classID); err != nil {
		writeError(w, h.Logger, "create student", err)
		return
	}
	s := &models.Student{
		ID:                  uuid.New(),
		ClassID:             classID,
		Name:                req.Name,
		InitialBalanceCents: req.InitialBalanceCents,
		CurrentBalanceCents: req.InitialBalanceCents,
	}
	if err := h.Students.Create(r.Context(), s); err != nil {
		writeError(w, h.Logger, "create student", err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

type importStudentsRequest struct {
	NamesCSV            string `json:"names_csv"`
	InitialBalanceCents int64  `json:"initial_balance_cents"`
}

// Import handles POST /api/classes/{id}/students/import: a CSV blob of names
// (commas and/or newlines) enrolled with a shared initial balance.
func (h *StudentHandler) Import(w http.ResponseWriter, r *http.Request) {
	classID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid class id"})
		return
	}
	var req importStudentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if req.InitialBalanceCents < 0 {
		writeError(w, h.Logger, "import students",
			fmt.Errorf("%w: initial balance must not be negative", models.ErrInvalidAmount))
		return
	}
	names, err := parseNameCSV(req.NamesCSV)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid CSV: " + err.Error()})
		return
	}
	if len(names) == 0 {
		writeError(w, h.Logger, "import students", fmt.Errorf("%w: student names", models.ErrMissingFields))
		return
	}
	if _, err := h.Classes.GetByID(r.Context(), classID); err != nil {
		writeError(w, h.Logger, "import students", err)
		return
	}

	students := make([]*models.Student, 0, len(names))
	for _, name := range names {
		students = append(students, &models.Student{
			ID:                  uuid.New(),
			ClassID:             classID,
			Name:                name,
			InitialBalanceCents: req.InitialBalanceCents,
			CurrentBalanceCents: req.InitialBalanceCents,
		})
	}
	if err := h.Students.CreateMany(r.Context(), students); err != nil {
		writeError(w, h.Logger, "import students", err)
		return
	}
	writeJSON(w, http.StatusCreated, students)
}

// parseNameCSV flattens all CSV records into a trimmed, non-empty name list.
func parseNameCSV(blob string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(blob))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, record := range records {
		for _, field := range record {
			name := strings.TrimSpace(field)
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// ListByClass handles GET /api/classes/{id}/students.
func (h *StudentHandler) ListByClass(w http.ResponseWriter, r *http.Request) {
	classID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid class id"})
		return
	}
	list, err := h.Students.ListByClass(r.Context(), classID)
	if err != nil {
		writeError(w, h.Logger, "list students", err)
		return
	}
	if list == nil {
		list = []*models.Student{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid student id"})
		return
	}
	s, err := h.Students.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "get student", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Delete removes a student from their class. Historical company ledger
// entries stay; deletion is not a refund.
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid student id"})
		return
	}
	if err := h.Students.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, "delete student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type balanceResponse struct {
	StudentID           uuid.UUID `json:"student_id"`
	CurrentBalanceCents int64     `json:"current_balance_cents"`
}

// Deposit handles POST /api/students/{id}/deposit.
func (h *StudentHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.balanceOp(w, r, "deposit", h.Balance.AddBalance)
}

// Withdraw handles POST /api/students/{id}/withdraw.
func (h *StudentHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.balanceOp(w, r, "withdraw", h.Balance.DeductBalance)
}

func (h *StudentHandler) balanceOp(w http.ResponseWriter, r *http.Request, op string, apply func(context.Context, uuid.UUID, int64) (int64, error)) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid student id"})
		return
	}
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	balance, err := apply(r.Context(), id, req.AmountCents)
	if err != nil {
		writeError(w, h.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{StudentID: id, CurrentBalanceCents: balance})
}

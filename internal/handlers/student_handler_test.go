package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/werlang/busicode-server/internal/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockStudentStore struct {
	students map[uuid.UUID]*models.Student
}

func newMockStudentStore() *mockStudentStore {
	return &mockStudentStore{students: make(map[uuid.UUID]*models.Student)}
}

func (m *mockStudentStore) Create(_ context.Context, s *models.Student) error {
	m.students[s.ID] = s
	return nil
}

func (m *mockStudentStore) CreateMany(_ context.Context, list []*models.Student) error {
	for _, s := range list {
		m.students[s.ID] = s
	}
	return nil
}

func (m *mockStudentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (m *mockStudentStore) ListByClass(_ context.Context, classID uuid.UUID) ([]*models.Student, error) {
	var out []*models.Student
	for _, s := range m.students {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStudentStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.students[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.students, id)
	return nil
}

type mockBalanceOps struct {
	err     error
	balance int64
}

func (m *mockBalanceOps) AddBalance(_ context.Context, _ uuid.UUID, amountCents int64) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.balance += amountCents
	return m.balance, nil
}

func (m *mockBalanceOps) DeductBalance(_ context.Context, _ uuid.UUID, amountCents int64) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.balance -= amountCents
	return m.balance, nil
}

type mockClassGetter struct {
	classes map[uuid.UUID]*models.Class
}

func (m *mockClassGetter) GetByID(_ context.Context, id uuid.UUID) (*models.Class, error) {
	c, ok := m.classes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func studentFixture() (*StudentHandler, *mockStudentStore, *mockBalanceOps, uuid.UUID) {
	classID := uuid.New()
	students := newMockStudentStore()
	balance := &mockBalanceOps{balance: 1000}
	classes := &mockClassGetter{classes: map[uuid.UUID]*models.Class{
		classID: {ID: classID, Name: "Turma A"},
	}}
	h := &StudentHandler{
		Students: students,
		Balance:  balance,
		Classes:  classes,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h, students, balance, classID
}

func serveStudents(h *StudentHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/classes/{id}/students", h.Create)
	mux.HandleFunc("POST /api/classes/{id}/students/import", h.Import)
	mux.HandleFunc("GET /api/classes/{id}/students", h.ListByClass)
	mux.HandleFunc("POST /api/students/{id}/deposit", h.Deposit)
	mux.HandleFunc("POST /api/students/{id}/withdraw", h.Withdraw)
	return mux
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreateStudent(t *testing.T) {
	h, students, _, classID := studentFixture()
	mux := serveStudents(h)

	body := `{"name":"Ana","initial_balance_cents":5000}`
	req := httptest.NewRequest(http.MethodPost, "/api/classes/"+classID.String()+"/students", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.CurrentBalanceCents != 5000 || created.InitialBalanceCents != 5000 {
		t.Errorf("balances: got %d/%d, want 5000/5000", created.InitialBalanceCents, created.CurrentBalanceCents)
	}
	if _, err := students.GetByID(context.Background(), created.ID); err != nil {
		t.Errorf("student not stored: %v", err)
	}
}

func TestCreateStudent_Validation(t *testing.T) {
	h, _, _, classID := studentFixture()
	mux := serveStudents(h)

	cases := []struct {
		name string
		url  string
		body string
		want int
	}{
		{"missing name", "/api/classes/" + classID.String() + "/students", `{"initial_balance_cents":100}`, http.StatusBadRequest},
		{"negative balance", "/api/classes/" + classID.String() + "/students", `{"name":"Ana","initial_balance_cents":-5}`, http.StatusBadRequest},
		{"unknown class", "/api/classes/" + uuid.New().String() + "/students", `{"name":"Ana"}`, http.StatusNotFound},
		{"bad class id", "/api/classes/not-a-uuid/students", `{"name":"Ana"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.url, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestImportStudents_CSV(t *testing.T) {
	h, students, _, classID := studentFixture()
	mux := serveStudents(h)

	// Mixed separators: commas and newlines, with stray whitespace.
	body := `{"names_csv":"Ana, Bruno\nCarla,\n Davi","initial_balance_cents":2000}`
	req := httptest.NewRequest(http.MethodPost, "/api/classes/"+classID.String()+"/students/import", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	list, _ := students.ListByClass(context.Background(), classID)
	if len(list) != 4 {
		t.Fatalf("imported students: got %d, want 4", len(list))
	}
	names := make(map[string]bool)
	for _, s := range list {
		names[s.Name] = true
		if s.CurrentBalanceCents != 2000 {
			t.Errorf("%s balance: got %d, want 2000", s.Name, s.CurrentBalanceCents)
		}
	}
	for _, want := range []string{"Ana", "Bruno", "Carla", "Davi"} {
		if !names[want] {
			t.Errorf("missing imported student %q", want)
		}
	}
}

func TestImportStudents_Empty(t *testing.T) {
	h, _, _, classID := studentFixture()
	mux := serveStudents(h)

	req := httptest.NewRequest(http.MethodPost, "/api/classes/"+classID.String()+"/students/import",
		strings.NewReader(`{"names_csv":" , \n ","initial_balance_cents":100}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name list, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	h, _, balance, _ := studentFixture()
	mux := serveStudents(h)
	studentID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/students/"+studentID.String()+"/deposit",
		strings.NewReader(`{"amount_cents":500}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CurrentBalanceCents != 1500 {
		t.Errorf("balance after deposit: got %d, want 1500", resp.CurrentBalanceCents)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/students/"+studentID.String()+"/withdraw",
		strings.NewReader(`{"amount_cents":300}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if balance.balance != 1200 {
		t.Errorf("final balance: got %d, want 1200", balance.balance)
	}
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	h, _, balance, _ := studentFixture()
	balance.err = fmt.Errorf("%w: Ana has R$ 3.00 but R$ 5.00 was requested", models.ErrInsufficientFunds)
	mux := serveStudents(h)

	req := httptest.NewRequest(http.MethodPost, "/api/students/"+uuid.New().String()+"/withdraw",
		strings.NewReader(`{"amount_cents":500}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Ana has R$ 3.00") {
		t.Errorf("error should carry the service message, got: %s", rec.Body.String())
	}
}

package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/werlang/busicode-server/internal/cleanup"
	"github.com/werlang/busicode-server/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mocks shared by the service tests. They let us exercise the real
// service logic without a database; the pgx.Tx threaded through is a no-op.
// ---------------------------------------------------------------------------

type noopTx struct{}

func (noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(ctx context.Context) error          { return nil }
func (noopTx) Rollback(ctx context.Context) error        { return nil }
func (noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (noopTx) Conn() *pgx.Conn                                               { return nil }

type mockBeginner struct{}

func (mockBeginner) Begin(ctx context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// ---

type mockStudents struct {
	mu       sync.Mutex
	students map[uuid.UUID]*models.Student
}

func newMockStudents(list ...*models.Student) *mockStudents {
	m := &mockStudents{students: make(map[uuid.UUID]*models.Student)}
	for _, s := range list {
		cp := *s
		m.students[s.ID] = &cp
	}
	return m
}

func (m *mockStudents) GetByID(_ context.Context, id uuid.UUID) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStudents) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Student, error) {
	return m.GetByID(ctx, id)
}

func (m *mockStudents) AddBalance(_ context.Context, _ pgx.Tx, id uuid.UUID, amountCents int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	s.CurrentBalanceCents += amountCents
	return s.CurrentBalanceCents, nil
}

func (m *mockStudents) DeductBalance(_ context.Context, _ pgx.Tx, id uuid.UUID, amountCents int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	if s.CurrentBalanceCents < amountCents {
		return 0, models.ErrInsufficientFunds
	}
	s.CurrentBalanceCents -= amountCents
	return s.CurrentBalanceCents, nil
}

func (m *mockStudents) List(_ context.Context) ([]*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Student
	for _, s := range m.students {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStudents) CreateTx(_ context.Context, _ pgx.Tx, s *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.students[s.ID] = &cp
	return nil
}

func (m *mockStudents) balance(id uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.students[id].CurrentBalanceCents
}

// ---

type mockCompanies struct {
	mu        sync.Mutex
	companies map[uuid.UUID]*models.Company
}

func newMockCompanies(list ...*models.Company) *mockCompanies {
	m := &mockCompanies{companies: make(map[uuid.UUID]*models.Company)}
	for _, c := range list {
		cp := *c
		m.companies[c.ID] = &cp
	}
	return m
}

func (m *mockCompanies) CreateTx(_ context.Context, _ pgx.Tx, c *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.companies[c.ID] = &cp
	return nil
}

func (m *mockCompanies) GetByID(_ context.Context, id uuid.UUID) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCompanies) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Company, error) {
	return m.GetByID(ctx, id)
}

func (m *mockCompanies) ListByClass(_ context.Context, classID uuid.UUID) ([]*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Company
	for _, c := range m.companies {
		if c.ClassID == classID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ReplaceMembersTx mirrors the repository semantics: retained members keep
// their recorded contribution, new members join with zero.
func (m *mockCompanies) ReplaceMembersTx(_ context.Context, _ pgx.Tx, companyID uuid.UUID, memberIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return models.ErrNotFound
	}
	existing := make(map[uuid.UUID]int64, len(c.Members))
	for _, member := range c.Members {
		existing[member.StudentID] = member.ContributionCents
	}
	members := make([]models.CompanyMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		members = append(members, models.CompanyMember{StudentID: id, ContributionCents: existing[id]})
	}
	c.Members = members
	return nil
}

func (m *mockCompanies) DeleteTx(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.companies, id)
	return nil
}

func (m *mockCompanies) List(_ context.Context) ([]*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Company
	for _, c := range m.companies {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockCompanies) RestoreTx(ctx context.Context, tx pgx.Tx, c *models.Company) error {
	return m.CreateTx(ctx, tx, c)
}

func (m *mockCompanies) has(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.companies[id]
	return ok
}

// ---

type mockEntries struct {
	mu      sync.Mutex
	nextSeq int64
	entries []*models.LedgerEntry
}

func (m *mockEntries) InsertTx(_ context.Context, _ pgx.Tx, e *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	e.Seq = m.nextSeq
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockEntries) TotalsTx(_ context.Context, _ pgx.Tx, companyID uuid.UUID) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var revenue, expense int64
	for _, e := range m.entries {
		if e.CompanyID != companyID {
			continue
		}
		switch e.EntryType {
		case models.EntryTypeRevenue:
			revenue += e.AmountCents
		case models.EntryTypeExpense:
			expense += e.AmountCents
		}
	}
	return revenue, expense, nil
}

func (m *mockEntries) ListByCompany(_ context.Context, companyID uuid.UUID) ([]*models.LedgerEntry, error) {
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

func (m *mockEntries) RestoreTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	return m.InsertTx(ctx, tx, e)
}

func (m *mockEntries) byCompany(companyID uuid.UUID) []*models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range m.entries {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out
}

// ---

type mockProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
}

func newMockProducts(list ...*models.Product) *mockProducts {
	m := &mockProducts{products: make(map[uuid.UUID]*models.Product)}
	for _, p := range list {
		cp := *p
		m.products[p.ID] = &cp
	}
	return m
}

func (m *mockProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProducts) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Product, error) {
	return m.GetByID(ctx, id)
}

func (m *mockProducts) RecordSale(_ context.Context, _ pgx.Tx, id uuid.UUID, units, amountCents int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	p.SalesCount += units
	p.TotalCents += amountCents
	cp := *p
	return &cp, nil
}

func (m *mockProducts) UpdatePrice(_ context.Context, id uuid.UUID, priceCents int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	p.PriceCents = priceCents
	cp := *p
	return &cp, nil
}

func (m *mockProducts) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProducts) List(_ context.Context) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockProducts) RestoreTx(_ context.Context, _ pgx.Tx, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

// ---

type mockClasses struct {
	mu      sync.Mutex
	classes map[uuid.UUID]*models.Class
}

func newMockClasses(list ...*models.Class) *mockClasses {
	m := &mockClasses{classes: make(map[uuid.UUID]*models.Class)}
	for _, c := range list {
		cp := *c
		m.classes[c.ID] = &cp
	}
	return m
}

func (m *mockClasses) List(_ context.Context) ([]*models.Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Class
	for _, c := range m.classes {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockClasses) CreateTx(_ context.Context, _ pgx.Tx, c *models.Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.classes[c.ID] = &cp
	return nil
}

// ---

// mockWiper empties every store, standing in for the DELETE cascade the real
// WipeRepo issues.
type mockWiper struct {
	classes  *mockClasses
	students *mockStudents
	comps    *mockCompanies
	products *mockProducts
	entries  *mockEntries
}

func (w *mockWiper) WipeAllTx(_ context.Context, _ pgx.Tx) error {
	w.classes.mu.Lock()
	w.classes.classes = make(map[uuid.UUID]*models.Class)
	w.classes.mu.Unlock()
	w.students.mu.Lock()
	w.students.students = make(map[uuid.UUID]*models.Student)
	w.students.mu.Unlock()
	w.comps.mu.Lock()
	w.comps.companies = make(map[uuid.UUID]*models.Company)
	w.comps.mu.Unlock()
	w.products.mu.Lock()
	w.products.products = make(map[uuid.UUID]*models.Product)
	w.products.mu.Unlock()
	w.entries.mu.Lock()
	w.entries.entries = nil
	w.entries.mu.Unlock()
	return nil
}

// ---

// cleanupRecorder captures the cleanup jobs a lifecycle operation enqueues.
type cleanupRecorder struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *cleanupRecorder) insert(_ context.Context, _ pgx.Tx, args cleanup.CompanyCleanupArgs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, args.CompanyID)
	return nil
}

func (r *cleanupRecorder) enqueued() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, len(r.ids))
	copy(out, r.ids)
	return out
}

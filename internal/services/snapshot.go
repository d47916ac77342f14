package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/werlang/busicode-server/internal/models"
)

type SnapshotClassStore interface {
	List(ctx context.Context) ([]*models.Class, error)
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.Class) error
}

type SnapshotStudentStore interface {
	List(ctx context.Context) ([]*models.Student, error)
	CreateTx(ctx context.Context, tx pgx.Tx, s *models.Student) error
}

type SnapshotCompanyStore interface {
	List(ctx context.Context) ([]*models.Company, error)
	RestoreTx(ctx context.Context, tx pgx.Tx, c *models.Company) error
}

type SnapshotProductStore interface {
	List(ctx context.Context) ([]*models.Product, error)
	RestoreTx(ctx context.Context, tx pgx.Tx, p *models.Product) error
}

type SnapshotEntryStore interface {
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.LedgerEntry, error)
	RestoreTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
}

// Wiper clears every entity table inside the restore transaction.
type Wiper interface {
	WipeAllTx(ctx context.Context, tx pgx.Tx) error
}

// SnapshotService exposes the read-all and recreate-from-snapshot primitives.
// File format and versioning belong to the surrounding backup layer.
type SnapshotService struct {
	pool     TxBeginner
	wiper    Wiper
	classes  SnapshotClassStore
	students SnapshotStudentStore
	comps    SnapshotCompanyStore
	products SnapshotProductStore
	entries  SnapshotEntryStore
}

func NewSnapshotService(pool TxBeginner, wiper Wiper, classes SnapshotClassStore, students SnapshotStudentStore, comps SnapshotCompanyStore, products SnapshotProductStore, entries SnapshotEntryStore) *SnapshotService {
	return &SnapshotService{
		pool:     pool,
		wiper:    wiper,
		classes:  classes,
		students: students,
		comps:    comps,
		products: products,
		entries:  entries,
	}
}

// Export reads every entity set, companies carrying their full ledgers.
func (s *SnapshotService) Export(ctx context.Context) (*models.Snapshot, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	companies, err := s.comps.List(ctx)
	if err != nil {
		return nil, err
	}
	snippets := make([]*models.CompanySnippet, 0, len(companies))
	for _, c := range companies {
		entries, err := s.entries.ListByCompany(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []*models.LedgerEntry{}
		}
		snippets = append(snippets, &models.CompanySnippet{Company: *c, Entries: entries})
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	if classes == nil {
		classes = []*models.Class{}
	}
	if students == nil {
		students = []*models.Student{}
	}
	if products == nil {
		products = []*models.Product{}
	}
	return &models.Snapshot{
		Classes:   classes,
		Students:  students,
		Companies: snippets,
		Products:  products,
	}, nil
}

// Restore wipes all entities and recreates the snapshot's contents in one
// transaction. Ledger entries are re-inserted in ascending sequence order so
// relative history ordering survives even though sequences are reassigned.
func (s *SnapshotService) Restore(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", models.ErrMissingFields)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.wiper.WipeAllTx(ctx, tx); err != nil {
		return err
	}
	for _, c := range snap.Classes {
		if err := s.classes.CreateTx(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, st := range snap.Students {
		if err := s.students.CreateTx(ctx, tx, st); err != nil {
			return err
		}
	}
	for _, c := range snap.Companies {
		company := c.Company
		if err := s.comps.RestoreTx(ctx, tx, &company); err != nil {
			return err
		}
		entries := make([]*models.LedgerEntry, len(c.Entries))
		copy(entries, c.Entries)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
		for _, e := range entries {
			e.CompanyID = company.ID
			if err := s.entries.RestoreTx(ctx, tx, e); err != nil {
				return err
			}
		}
	}
	for _, p := range snap.Products {
		if err := s.products.RestoreTx(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

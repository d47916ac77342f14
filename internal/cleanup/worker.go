package cleanup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// CompanyCleanupArgs identifies a deleted company whose products must go.
// Jobs are inserted with InsertTx inside the deleting transaction, so the
// cascade cannot be lost and cannot run for a company that still exists.
type CompanyCleanupArgs struct {
	CompanyID uuid.UUID `json:"company_id"`
}

func (CompanyCleanupArgs) Kind() string { return "company_cleanup" }

// ProductStore is the contract the worker needs to remove a company's products.
type ProductStore interface {
	DeleteByCompanyID(ctx context.Context, companyID uuid.UUID) (int64, error)
}

type CompanyCleanupWorker struct {
	river.WorkerDefaults[CompanyCleanupArgs]
	products ProductStore
	log      *slog.Logger
}

func NewCompanyCleanupWorker(products ProductStore, log *slog.Logger) *CompanyCleanupWorker {
	if log == nil {
		log = slog.Default()
	}
	return &CompanyCleanupWorker{products: products, log: log}
}

func (w *CompanyCleanupWorker) Work(ctx context.Context, job *river.Job[CompanyCleanupArgs]) error {
	deleted, err := w.products.DeleteByCompanyID(ctx, job.Args.CompanyID)
	if err != nil {
		return fmt.Errorf("delete products of company %s: %w", job.Args.CompanyID, err)
	}
	w.log.Info("company products cleaned up", "company_id", job.Args.CompanyID, "deleted", deleted)
	return nil
}

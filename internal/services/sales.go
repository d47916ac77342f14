package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/werlang/busicode-server/internal/events"
	"github.com/werlang/busicode-server/internal/models"
)

// SalesProductStore is the minimal product repository interface for sales
// settlement.
type SalesProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Product, error)
	RecordSale(ctx context.Context, tx pgx.Tx, id uuid.UUID, units, amountCents int64) (*models.Product, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, priceCents int64) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SalesCompanyStore resolves the owning company when launching a product.
type SalesCompanyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// SalesLedger posts the sale revenue inside the settlement transaction.
type SalesLedger interface {
	InsertTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
}

// SalesService converts recorded product sales into ledger revenue. The
// counter update and the revenue entry land in one transaction, at the price
// in effect when the sale is recorded.
type SalesService struct {
	pool      TxBeginner
	products  SalesProductStore
	companies SalesCompanyStore
	ledger    SalesLedger
	bus       *events.Bus
}

func NewSalesService(pool TxBeginner, products SalesProductStore, companies SalesCompanyStore, ledger SalesLedger, bus *events.Bus) *SalesService {
	return &SalesService{pool: pool, products: products, companies: companies, ledger: ledger, bus: bus}
}

// LaunchProduct creates a product for the company at the given price.
func (s *SalesService) LaunchProduct(ctx context.Context, companyID uuid.UUID, name string, priceCents int64) (*models.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name", models.ErrMissingFields)
	}
	if priceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be positive, got %d", models.ErrInvalidAmount, priceCents)
	}
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		return nil, fmt.Errorf("company %s: %w", companyID, err)
	}
	p := &models.Product{ID: uuid.New(), CompanyID: companyID, Name: name, PriceCents: priceCents}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddSales records units sold at the product's current price: increments the
// cumulative counters and posts the matching revenue to the owning company's
// ledger. Later price edits never touch the recorded total.
func (s *SalesService) AddSales(ctx context.Context, productID uuid.UUID, units int64) (*models.Product, error) {
	if units <= 0 {
		return nil, fmt.Errorf("%w: units must be positive, got %d", models.ErrInvalidAmount, units)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.products.GetByIDForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	amount := units * p.PriceCents

	updated, err := s.products.RecordSale(ctx, tx, productID, units, amount)
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		CompanyID:   p.CompanyID,
		EntryType:   models.EntryTypeRevenue,
		Description: fmt.Sprintf("Venda: %s (%d un)", p.Name, units),
		AmountCents: amount,
		EntryDate:   time.Now(),
	}
	if err := s.ledger.InsertTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ProductSold{
		ProductID:   productID,
		CompanyID:   p.CompanyID,
		Units:       units,
		AmountCents: amount,
	})
	return updated, nil
}

// UpdatePrice replaces the product's price for future sales only.
func (s *SalesService) UpdatePrice(ctx context.Context, productID uuid.UUID, priceCents int64) (*models.Product, error) {
	if priceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be positive, got %d", models.ErrInvalidAmount, priceCents)
	}
	p, err := s.products.UpdatePrice(ctx, productID, priceCents)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	return p, nil
}

// DeleteProduct removes a product explicitly. Already-posted revenue entries
// are immutable history and stay on the company ledger.
func (s *SalesService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.products.Delete(ctx, productID); err != nil {
		return fmt.Errorf("product %s: %w", productID, err)
	}
	return nil
}

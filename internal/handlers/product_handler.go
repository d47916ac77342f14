package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/werlang/busicode-server/internal/models"
)

// Sales covers the product lifecycle and sale settlement.
type Sales interface {
	LaunchProduct(ctx context.Context, companyID uuid.UUID, name string, priceCents int64) (*models.Product, error)
	AddSales(ctx context.Context, productID uuid.UUID, units int64) (*models.Product, error)
	UpdatePrice(ctx context.Context, productID uuid.UUID, priceCents int64) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
}

// ProductStore is the read side of the product repository.
type ProductStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
}

// ProductHandler serves /api/products and company-scoped product endpoints.
type ProductHandler struct {
	Sales    Sales
	Products ProductStore
	Logger   *slog.Logger
}

type launchProductRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// Launch handles POST /api/companies/{id}/products.
func (h *ProductHandler) Launch(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
		return
	}
	var req launchProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	p, err := h.Sales.LaunchProduct(r.Context(), companyID, req.Name, req.PriceCents)
	if err != nil {
		writeError(w, h.Logger, "launch product", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListByCompany handles GET /api/companies/{id}/products.
func (h *ProductHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
		return
	}
	list, err := h.Products.ListByCompany(r.Context(), companyID)
	if err != nil {
		writeError(w, h.Logger, "list products", err)
		return
	}
	if list == nil {
		list = []*models.Product{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Products.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, "list products", err)
		return
	}
	if list == nil {
		list = []*models.Product{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	p, err := h.Products.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type addSalesRequest struct {
	Units int64 `json:"units"`
}

// AddSales handles POST /api/products/{id}/sales.
func (h *ProductHandler) AddSales(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	var req addSalesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	p, err := h.Sales.AddSales(r.Context(), id, req.Units)
	if err != nil {
		writeError(w, h.Logger, "add sales", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updatePriceRequest struct {
	PriceCents int64 `json:"price_cents"`
}

// UpdatePrice handles PATCH /api/products/{id}/price.
func (h *ProductHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	p, err := h.Sales.UpdatePrice(r.Context(), id, req.PriceCents)
	if err != nil {
		writeError(w, h.Logger, "update price", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	if err := h.Sales.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, h.Logger, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

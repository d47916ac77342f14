package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/werlang/busicode-server/internal/models"
)

// ClassStore is the subset of the class repository needed by the handler.
type ClassStore interface {
	Create(ctx context.Context, c *models.Class) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Class, error)
	List(ctx context.Context) ([]*models.Class, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClassCompanyLifecycle deletes a class's companies with per-company cleanup
// notifications before the class row goes.
type ClassCompanyLifecycle interface {
	DeleteCompaniesByClass(ctx context.Context, classID uuid.UUID) ([]*models.Company, error)
}

// ClassHandler serves /api/classes endpoints.
type ClassHandler struct {
	Classes   ClassStore
	Lifecycle ClassCompanyLifecycle
	Logger    *slog.Logger
}

type createClassRequest struct {
	Name string `json:"name"`
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if req.Name == "" {
		writeError(w, h.Logger, "create class", fmt.Errorf("%w: name", models.ErrMissingFields))
		return
	}
	c := &models.Class{ID: uuid.New(), Name: req.Name}
	if err := h.Classes.Create(r.Context(), c); err != nil {
		writeError(w, h.Logger, "create class", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Classes.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, "list classes", err)
		return
	}
	if list == nil {
		list = []*models.Class{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid class id"})
		return
	}
	c, err := h.Classes.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "get class", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes a class. Companies go first, through the lifecycle service,
// so each one's products are queued for cleanup; students cascade with the
// class row.
func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid class id"})
		return
	}
	if _, err := h.Classes.GetByID(r.Context(), id); err != nil {
		writeError(w, h.Logger, "delete class", err)
		return
	}
	if _, err := h.Lifecycle.DeleteCompaniesByClass(r.Context(), id); err != nil {
		writeError(w, h.Logger, "delete class companies", err)
		return
	}
	if err := h.Classes.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, "delete class", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

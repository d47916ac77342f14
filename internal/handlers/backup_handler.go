package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/werlang/busicode-server/internal/models"
)

// snapshotFileVersion tags the export format. Restore refuses anything else.
const snapshotFileVersion = 1

// Snapshotter exports the full dataset and recreates it from a snapshot.
type Snapshotter interface {
	Export(ctx context.Context) (*models.Snapshot, error)
	Restore(ctx context.Context, snap *models.Snapshot) error
}

// SnapshotValidator schema-checks an uploaded snapshot body before restore.
type SnapshotValidator interface {
	Validate(raw json.RawMessage) error
}

// BackupHandler serves /api/export and /api/restore.
type BackupHandler struct {
	Snapshots Snapshotter
	Validator SnapshotValidator
	Logger    *slog.Logger
}

type snapshotFile struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	*models.Snapshot
}

// Export handles GET /api/export: the full dataset as a downloadable file.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Snapshots.Export(r.Context())
	if err != nil {
		writeError(w, h.Logger, "export", err)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="busicode-%s.json"`, time.Now().Format("2006-01-02")))
	writeJSON(w, http.StatusOK, snapshotFile{
		Version:    snapshotFileVersion,
		ExportedAt: time.Now(),
		Snapshot:   snap,
	})
}

// Restore handles POST /api/restore. The body is schema-validated first;
// nothing is wiped unless the whole payload is acceptable.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
		return
	}

	var envelope struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if envelope.Version != snapshotFileVersion {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{Error: fmt.Sprintf("unsupported snapshot version %d", envelope.Version)})
		return
	}

	if err := h.Validator.Validate(body); err != nil {
		writeError(w, h.Logger, "restore", err)
		return
	}

	var file snapshotFile
	file.Snapshot = &models.Snapshot{}
	if err := json.Unmarshal(body, &file); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	if err := h.Snapshots.Restore(r.Context(), file.Snapshot); err != nil {
		writeError(w, h.Logger, "restore", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/photo-annotator/internal/storage"
)

// CleanupHandler drops cached detections and generated artifacts.
type CleanupHandler struct {
	store *storage.Store
}

// NewCleanupHandler creates a new cleanup handler.
func NewCleanupHandler(store *storage.Store) *CleanupHandler {
	return &CleanupHandler{store: store}
}

// CleanupResponse reports how many artifact entries were removed.
type CleanupResponse struct {
	Status  string `json:"status"`
	Removed int    `json:"removed"`
}

// Cleanup handles POST /api/v1/cleanup.
func (h *CleanupHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.Cleanup()
	if err != nil {
		log.Printf("Cleanup failed after removing %d entries: %v", removed, err)
		respondError(w, http.StatusInternalServerError, "failed to remove artifacts")
		return
	}
	respondJSON(w, http.StatusOK, CleanupResponse{Status: "ok", Removed: removed})
}

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/photo-annotator/internal/annotate"
	"github.com/kozaktomas/photo-annotator/internal/detection"
	"github.com/kozaktomas/photo-annotator/internal/storage"
)

// AnnotateHandler runs object detection on stored images.
type AnnotateHandler struct {
	store        *storage.Store
	orchestrator *annotate.Orchestrator
}

// NewAnnotateHandler creates a new annotate handler.
func NewAnnotateHandler(store *storage.Store, orchestrator *annotate.Orchestrator) *AnnotateHandler {
	return &AnnotateHandler{
		store:        store,
		orchestrator: orchestrator,
	}
}

// AnnotateRequest names the stored image and the labels to look for.
type AnnotateRequest struct {
	Filename string   `json:"filename"`
	Objects  []string `json:"objects"`
}

// AnnotateResponse carries the deduplicated boxes per requested label.
type AnnotateResponse struct {
	Filename string `json:"filename"`
	AnnotationResult
}

// Annotate handles POST /api/v1/annotate.
func (h *AnnotateHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	var req AnnotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.Filename = strings.TrimSpace(req.Filename)
	if req.Filename == "" {
		respondError(w, http.StatusBadRequest, "filename is required")
		return
	}
	objects := detection.CleanLabels(req.Objects)
	if len(objects) == 0 {
		respondError(w, http.StatusBadRequest, "objects is required")
		return
	}

	snap, err := h.store.Load(req.Filename)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("Failed to read image %s: %v", sanitizeForLog(req.Filename), err)
		respondError(w, http.StatusInternalServerError, "failed to read image")
		return
	}

	img := annotate.Image{Key: snap.Key, Data: snap.Data}
	res := h.orchestrator.AnnotateAt(r.Context(), snap.Generation, img, objects)
	status, result := newAnnotationResult(res)
	respondJSON(w, status, AnnotateResponse{
		Filename:         req.Filename,
		AnnotationResult: *result,
	})
}

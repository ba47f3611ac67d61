package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/photo-annotator/internal/annotate"
	"github.com/kozaktomas/photo-annotator/internal/constants"
	"github.com/kozaktomas/photo-annotator/internal/detection"
	"github.com/kozaktomas/photo-annotator/internal/storage"
)

// UploadHandler handles image upload endpoints.
type UploadHandler struct {
	store        *storage.Store
	orchestrator *annotate.Orchestrator
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store *storage.Store, orchestrator *annotate.Orchestrator) *UploadHandler {
	return &UploadHandler{
		store:        store,
		orchestrator: orchestrator,
	}
}

// UploadResponse is returned after a successful upload. The annotation part
// is only present when objects were sent along with the file.
type UploadResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	*AnnotationResult
}

// Upload stores a new image, replacing the previous one. When the form also
// carries a comma separated "objects" field the image is annotated right away.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile(constants.UploadFormField)
	if err != nil {
		// A part without a filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value[constants.UploadFormField]; ok {
			respondError(w, http.StatusBadRequest, storage.ErrEmptyFilename.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()

	key, err := h.store.Replace(header.Filename, file)
	switch {
	case errors.Is(err, storage.ErrEmptyFilename), errors.Is(err, storage.ErrExtensionNotAllowed):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("Failed to store upload %s: %v", sanitizeForLog(header.Filename), err)
		respondError(w, http.StatusInternalServerError, "failed to save file")
		return
	}
	log.Printf("Stored upload %s as %s", sanitizeForLog(header.Filename), key)

	resp := UploadResponse{
		Filename: key,
		URL:      constants.UploadsURLPrefix + key,
	}

	objects := detection.SplitLabels(r.FormValue(constants.ObjectsFormField))
	if len(objects) == 0 {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	snap, err := h.store.Load(key)
	if err != nil {
		log.Printf("Failed to read back upload %s: %v", key, err)
		respondError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}
	img := annotate.Image{Key: snap.Key, Data: snap.Data}
	status, result := newAnnotationResult(h.orchestrator.AnnotateAt(r.Context(), snap.Generation, img, objects))
	resp.AnnotationResult = result
	respondJSON(w, status, resp)
}

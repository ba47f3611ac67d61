package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kozaktomas/photo-annotator/internal/annotate"
	"github.com/kozaktomas/photo-annotator/internal/detection"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// AnnotationResult is the outcome of one annotation call as seen by clients.
type AnnotationResult struct {
	Status          annotate.Status        `json:"status"`
	DetectedObjects detection.DetectionSet `json:"detected_objects"`
	Cached          bool                   `json:"cached"`
	Warning         string                 `json:"warning,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// newAnnotationResult converts an orchestrator result and picks the HTTP
// status it should be answered with.
func newAnnotationResult(res annotate.Result) (int, *AnnotationResult) {
	out := &AnnotationResult{
		Status:          res.Status,
		DetectedObjects: res.Detections,
		Cached:          res.CacheHit,
	}
	if out.DetectedObjects == nil {
		out.DetectedObjects = detection.DetectionSet{}
	}

	switch res.Status {
	case annotate.StatusFailure:
		out.Error = res.Diagnostic
		return http.StatusBadGateway, out
	case annotate.StatusEmpty:
		out.Warning = res.Diagnostic
	}
	return http.StatusOK, out
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

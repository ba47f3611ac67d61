package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/photo-annotator/internal/ai"
	"github.com/kozaktomas/photo-annotator/internal/annotate"
	"github.com/kozaktomas/photo-annotator/internal/cache"
	"github.com/kozaktomas/photo-annotator/internal/detection"
	"github.com/kozaktomas/photo-annotator/internal/storage"
)

// stubDetector answers from a fixed table and records every call. When
// byImage has an entry for the image bytes it is used instead of answers.
type stubDetector struct {
	mu      sync.Mutex
	answers detection.DetectionSet
	byImage map[string]detection.DetectionSet
	err     error
	calls   [][]string
}

func (s *stubDetector) Name() string { return "stub" }

func (s *stubDetector) Detect(_ context.Context, data []byte, labels []string) (detection.DetectionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]string(nil), labels...))
	if s.err != nil {
		return nil, s.err
	}
	answers := s.answers
	if set, ok := s.byImage[string(data)]; ok {
		answers = set
	}
	out := detection.DetectionSet{}
	for _, l := range labels {
		if boxes, ok := answers[l]; ok {
			out[l] = append([]detection.Box(nil), boxes...)
		}
	}
	return out, nil
}

func (s *stubDetector) GetUsage() ai.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ai.Usage{Requests: len(s.calls)}
}

func (s *stubDetector) ResetUsage() {}

func (s *stubDetector) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// testEnv wires a real store and orchestrator around a stub detector.
type testEnv struct {
	store        *storage.Store
	cache        *cache.DetectionCache
	orchestrator *annotate.Orchestrator
	detector     *stubDetector
	uploadDir    string
	artifactsDir string
}

func newTestEnv(t *testing.T, det *stubDetector) *testEnv {
	t.Helper()
	if det == nil {
		det = &stubDetector{}
	}
	uploadDir := t.TempDir()
	artifactsDir := t.TempDir()
	c := cache.New()
	store, err := storage.NewStore(uploadDir, artifactsDir, c)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return &testEnv{
		store:        store,
		cache:        c,
		orchestrator: annotate.NewOrchestrator(c, det, annotate.Options{Tolerance: detection.DefaultTolerance, Timeout: time.Second}),
		detector:     det,
		uploadDir:    uploadDir,
		artifactsDir: artifactsDir,
	}
}

// multipartRequest builds an upload request. An empty field name skips the
// file part entirely.
func multipartRequest(t *testing.T, field, filename string, content []byte, values map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(content)
	}
	for k, v := range values {
		writer.WriteField(k, v)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/api/v1/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// jsonRequest encodes body as the request payload.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%v'", expectedMessage, result["error"])
	}
}

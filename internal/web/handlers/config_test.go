package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/photo-annotator/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{APIKey: "test-key"},
		Detection: config.DetectionConfig{
			Provider:  config.ProviderGemini,
			Timeout:   45 * time.Second,
			Tolerance: 7,
		},
	}
}

func TestNewConfigHandler(t *testing.T) {
	cfg := testConfig()

	handler := NewConfigHandler(cfg, nil)

	if handler == nil {
		t.Fatal("expected non-nil handler")
		return
	}

	if handler.config != cfg {
		t.Error("expected handler to hold reference to config")
	}
}

func TestConfigHandler_Get_ReturnsJSON(t *testing.T) {
	handler := NewConfigHandler(testConfig(), nil)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")
}

func TestConfigHandler_Get_ReportsDetectionSettings(t *testing.T) {
	handler := NewConfigHandler(testConfig(), nil)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	var result ConfigResponse
	parseJSONResponse(t, recorder, &result)

	if result.Provider != config.ProviderGemini {
		t.Errorf("expected provider gemini, got %q", result.Provider)
	}
	if result.Tolerance != 7 {
		t.Errorf("expected tolerance 7, got %d", result.Tolerance)
	}
	if result.TimeoutSeconds != 45 {
		t.Errorf("expected timeout 45, got %d", result.TimeoutSeconds)
	}
	if len(result.AllowedExtensions) != 4 {
		t.Errorf("expected 4 allowed extensions, got %v", result.AllowedExtensions)
	}
	if result.Usage != nil {
		t.Error("expected no usage without a detector")
	}
}

func TestConfigHandler_Get_ProviderAvailability(t *testing.T) {
	handler := NewConfigHandler(testConfig(), nil)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	var result ConfigResponse
	parseJSONResponse(t, recorder, &result)

	available := map[string]bool{}
	for _, p := range result.Providers {
		available[p.Name] = p.Available
	}
	if !available[config.ProviderGemini] {
		t.Error("expected gemini to be available")
	}
	if available[config.ProviderOpenAI] {
		t.Error("expected openai to be unavailable without token")
	}
}

func TestConfigHandler_Get_IncludesDetectorUsage(t *testing.T) {
	det := &stubDetector{calls: [][]string{{"cat"}, {"dog"}}}
	handler := NewConfigHandler(testConfig(), det)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	var result ConfigResponse
	parseJSONResponse(t, recorder, &result)

	if result.Provider != config.ProviderGemini {
		t.Errorf("expected provider key to be kept, got %q", result.Provider)
	}
	if result.Model != "stub" {
		t.Errorf("expected detector name as model, got %q", result.Model)
	}
	if result.Usage == nil || result.Usage.Requests != 2 {
		t.Errorf("expected usage with 2 requests, got %+v", result.Usage)
	}
}

package handlers

import (
	"net/http"

	"github.com/kozaktomas/photo-annotator/internal/ai"
	"github.com/kozaktomas/photo-annotator/internal/config"
	"github.com/kozaktomas/photo-annotator/internal/storage"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config   *config.Config
	detector ai.Detector
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, detector ai.Detector) *ConfigHandler {
	return &ConfigHandler{
		config:   cfg,
		detector: detector,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Provider          string         `json:"provider"`
	Model             string         `json:"model,omitempty"`
	Providers         []ProviderInfo `json:"providers"`
	Tolerance         int            `json:"tolerance"`
	TimeoutSeconds    int            `json:"timeout_seconds"`
	AllowedExtensions []string       `json:"allowed_extensions"`
	Usage             *ai.Usage      `json:"usage,omitempty"`
}

// ProviderInfo represents information about an AI provider
type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Get returns the active configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		Provider: h.config.Detection.Provider,
		Providers: []ProviderInfo{
			{Name: config.ProviderGemini, Available: h.config.Gemini.APIKey != ""},
			{Name: config.ProviderOpenAI, Available: h.config.OpenAI.Token != ""},
		},
		Tolerance:         h.config.Detection.Tolerance,
		TimeoutSeconds:    int(h.config.Detection.Timeout.Seconds()),
		AllowedExtensions: storage.AllowedExtensions,
	}
	if h.detector != nil {
		response.Model = h.detector.Name()
		if reporter, ok := h.detector.(ai.UsageReporter); ok {
			usage := reporter.GetUsage()
			response.Usage = &usage
		}
	}

	respondJSON(w, http.StatusOK, response)
}

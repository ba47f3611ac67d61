package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed prices.yaml
var pricesYAML []byte

// Detection providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Detection DetectionConfig
	Storage   StorageConfig
	Web       WebConfig
	Prices    PricesConfig
}

type GeminiConfig struct {
	APIKey string
}

type OpenAIConfig struct {
	Token string
}

type DetectionConfig struct {
	Provider      string        // gemini (default) or openai
	Timeout       time.Duration // bound on a single detection call (default 60s)
	Tolerance     int           // pixel tolerance for duplicate boxes (default 5)
	MaxAttempts   int           // re-prompts on unparsable output within one call (default 1)
	ThumbnailSize int           // max width/height sent to the model (default 1024)
}

type StorageConfig struct {
	UploadDir    string // where uploaded images live (default uploads)
	ArtifactsDir string // where mask/overlay files are written (default segmentation_outputs)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
}

type PricesConfig struct {
	Models map[string]ModelPricing `yaml:"models"`
}

type ModelPricing struct {
	Standard RequestPricing `yaml:"standard"`
}

type RequestPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable, falling back to defaultVal when unset.
func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma separated environment variable, dropping blank items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var prices PricesConfig
	if err := yaml.Unmarshal(pricesYAML, &prices); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded prices.yaml: " + err.Error())
	}

	return &Config{
		Gemini: GeminiConfig{
			APIKey: firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Detection: DetectionConfig{
			Provider:      strings.ToLower(envString("DETECTION_PROVIDER", ProviderGemini)),
			Timeout:       time.Duration(envInt("DETECTION_TIMEOUT", 60)) * time.Second,
			Tolerance:     envInt("DETECTION_TOLERANCE", 5),
			MaxAttempts:   envInt("DETECTION_MAX_ATTEMPTS", 1),
			ThumbnailSize: envInt("THUMBNAIL_SIZE", 1024),
		},
		Storage: StorageConfig{
			UploadDir:    envString("UPLOAD_DIR", "uploads"),
			ArtifactsDir: envString("ARTIFACTS_DIR", "segmentation_outputs"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Prices: prices,
	}
}

// GetModelPricing returns pricing for a specific model, with fallback defaults
func (c *Config) GetModelPricing(modelName string) ModelPricing {
	if pricing, ok := c.Prices.Models[modelName]; ok {
		return pricing
	}
	// Return zero pricing if model not found
	return ModelPricing{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

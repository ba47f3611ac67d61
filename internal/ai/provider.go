package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kozaktomas/photo-annotator/internal/config"
	"github.com/kozaktomas/photo-annotator/internal/detection"
)

var (
	// ErrNoResponse is returned when the model answers with no content.
	ErrNoResponse = errors.New("no response from model")
	// ErrMalformedResponse is returned when the model output does not follow
	// the segmentation schema.
	ErrMalformedResponse = errors.New("malformed detection response")
)

// Detector finds labeled objects in an image. Boxes are returned in the
// coordinate space of the original image.
type Detector interface {
	Name() string
	Detect(ctx context.Context, imageData []byte, labels []string) (detection.DetectionSet, error)
}

// UsageReporter is implemented by detectors that track token usage.
type UsageReporter interface {
	GetUsage() Usage
	ResetUsage()
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"` // in USD
}

// RequestPricing holds input/output prices per 1M tokens
type RequestPricing struct {
	Input  float64
	Output float64
}

// Options tune how a detector prepares images and reads model output.
type Options struct {
	ThumbnailSize int            // max width/height of the image sent to the model
	MaxAttempts   int            // re-prompts allowed when the output cannot be parsed
	Artifacts     *ArtifactWriter // optional mask/overlay writer
}

func (o Options) attempts() int {
	if o.MaxAttempts < 1 {
		return 1
	}
	return o.MaxAttempts
}

func (o Options) thumbnailSize() int {
	if o.ThumbnailSize < 1 {
		return 1024
	}
	return o.ThumbnailSize
}

// usageTracker is shared by providers; detection runs concurrently per request.
type usageTracker struct {
	mu          sync.Mutex
	usage       Usage
	inputPrice  float64 // per 1M tokens
	outputPrice float64 // per 1M tokens
}

func newUsageTracker(pricing RequestPricing) *usageTracker {
	return &usageTracker{inputPrice: pricing.Input, outputPrice: pricing.Output}
}

func (u *usageTracker) track(inputTokens, outputTokens int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.usage.Requests++
	u.usage.InputTokens += int(inputTokens)
	u.usage.OutputTokens += int(outputTokens)
	u.usage.TotalCost += float64(inputTokens) / 1_000_000 * u.inputPrice
	u.usage.TotalCost += float64(outputTokens) / 1_000_000 * u.outputPrice
}

func (u *usageTracker) GetUsage() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usage
}

func (u *usageTracker) ResetUsage() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.usage = Usage{}
}

// NewDetector builds the detector selected by cfg.Detection.Provider.
func NewDetector(ctx context.Context, cfg *config.Config) (Detector, error) {
	opts := Options{
		ThumbnailSize: cfg.Detection.ThumbnailSize,
		MaxAttempts:   cfg.Detection.MaxAttempts,
		Artifacts:     NewArtifactWriter(cfg.Storage.ArtifactsDir),
	}

	switch cfg.Detection.Provider {
	case config.ProviderGemini, "":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		pricing := cfg.GetModelPricing(geminiModel).Standard
		return NewGeminiDetector(ctx, cfg.Gemini.APIKey, RequestPricing(pricing), opts)
	case config.ProviderOpenAI:
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN environment variable is required")
		}
		pricing := cfg.GetModelPricing(chatModel).Standard
		return NewOpenAIDetector(cfg.OpenAI.Token, RequestPricing(pricing), opts), nil
	default:
		return nil, fmt.Errorf("unknown detection provider %q", cfg.Detection.Provider)
	}
}

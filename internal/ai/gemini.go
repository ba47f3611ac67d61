package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/kozaktomas/photo-annotator/internal/detection"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

// GeminiDetector asks Gemini for segmentation masks of the requested labels.
type GeminiDetector struct {
	*usageTracker
	client *genai.Client
	opts   Options
}

func NewGeminiDetector(ctx context.Context, apiKey string, pricing RequestPricing, opts Options) (*GeminiDetector, error) {
	return newGeminiDetector(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, pricing, opts)
}

func newGeminiDetector(ctx context.Context, cc *genai.ClientConfig, pricing RequestPricing, opts Options) (*GeminiDetector, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiDetector{
		usageTracker: newUsageTracker(pricing),
		client:       client,
		opts:         opts,
	}, nil
}

func (p *GeminiDetector) Name() string {
	return geminiModel
}

func (p *GeminiDetector) Detect(ctx context.Context, imageData []byte, labels []string) (detection.DetectionSet, error) {
	img, err := prepareImage(imageData, p.opts.thumbnailSize())
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildSegmentationPrompt(labels)},
				{InlineData: &genai.Blob{Data: img.Thumbnail, MIMEType: "image/jpeg"}},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ThinkingConfig:   &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}

	var lastError error
	var lastResponse string

	for range p.opts.attempts() {
		result, err := p.client.Models.GenerateContent(ctx, geminiModel, contents, config)
		if err != nil {
			return nil, fmt.Errorf("gemini API error: %w", err)
		}

		if result.UsageMetadata != nil {
			p.track(int64(result.UsageMetadata.PromptTokenCount), int64(result.UsageMetadata.CandidatesTokenCount))
		}

		content := result.Text()
		if content == "" {
			return nil, fmt.Errorf("gemini: %w", ErrNoResponse)
		}
		lastResponse = content

		segments, err := ParseSegments(content, img.Width, img.Height)
		if err != nil {
			lastError = err

			// Add model response and error feedback to contents for retry
			contents = append(contents,
				&genai.Content{
					Role:  "model",
					Parts: []*genai.Part{{Text: content}},
				},
				&genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: parseFeedback(err)}},
				},
			)
			continue
		}

		if dir, err := p.opts.Artifacts.Write(img.Source, segments); err != nil {
			log.Printf("Warning: failed to save segmentation artifacts: %v", err)
		} else if dir != "" {
			log.Printf("Saved segmentation artifacts to %s", dir)
		}

		return segmentsToSet(segments), nil
	}

	return nil, fmt.Errorf("failed to parse gemini output after %d attempts: %w (last response: %s)",
		p.opts.attempts(), lastError, truncate(lastResponse, 200))
}

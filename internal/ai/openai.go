package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/kozaktomas/photo-annotator/internal/detection"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const chatModel = openai.ChatModelGPT4_1Mini

// OpenAIDetector asks an OpenAI chat model for bounding boxes. It does not
// produce masks.
type OpenAIDetector struct {
	*usageTracker
	client *openai.Client
	opts   Options
}

func NewOpenAIDetector(apiKey string, pricing RequestPricing, opts Options) *OpenAIDetector {
	return newOpenAIDetector(pricing, opts, option.WithAPIKey(apiKey))
}

func newOpenAIDetector(pricing RequestPricing, opts Options, reqOpts ...option.RequestOption) *OpenAIDetector {
	client := openai.NewClient(reqOpts...)
	return &OpenAIDetector{
		usageTracker: newUsageTracker(pricing),
		client:       &client,
		opts:         opts,
	}
}

func (p *OpenAIDetector) Name() string {
	return chatModel
}

func (p *OpenAIDetector) Detect(ctx context.Context, imageData []byte, labels []string) (detection.DetectionSet, error) {
	img, err := prepareImage(imageData, p.opts.thumbnailSize())
	if err != nil {
		return nil, err
	}

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img.Thumbnail)

	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(detectionPrompt),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
						openai.TextContentPart(buildDetectionUserMessage(labels)),
						openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
							URL:    imageURL,
							Detail: "high",
						}),
					},
				},
			},
		},
	}

	var lastError error
	var lastResponse string

	for range p.opts.attempts() {
		resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    chatModel,
			Messages: messages,
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
			MaxTokens: openai.Int(2000),
		})
		if err != nil {
			return nil, fmt.Errorf("OpenAI API error: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai: %w", ErrNoResponse)
		}

		if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
			p.track(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}

		content := resp.Choices[0].Message.Content
		lastResponse = content

		segments, err := ParseSegments(content, img.Width, img.Height)
		if err != nil {
			lastError = err

			// Add assistant response and error feedback to messages for retry
			messages = append(messages,
				openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						Content: openai.ChatCompletionAssistantMessageParamContentUnion{
							OfString: openai.String(content),
						},
					},
				},
				openai.UserMessage(parseFeedback(err)),
			)
			continue
		}

		return segmentsToSet(segments), nil
	}

	return nil, fmt.Errorf("failed to parse OpenAI output after %d attempts: %w (last response: %s)",
		p.opts.attempts(), lastError, truncate(lastResponse, 200))
}

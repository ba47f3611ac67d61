package ai

import (
	_ "embed"
	"strings"
)

//go:embed prompts/segmentation.txt
var segmentationPrompt string

//go:embed prompts/detection.txt
var detectionPrompt string

// buildSegmentationPrompt fills the requested labels into the segmentation prompt.
func buildSegmentationPrompt(labels []string) string {
	return strings.ReplaceAll(segmentationPrompt, "{{LABELS}}", quoteLabels(labels))
}

// buildDetectionUserMessage lists the requested labels for chat-style providers.
func buildDetectionUserMessage(labels []string) string {
	return "Objects to find: " + quoteLabels(labels)
}

func quoteLabels(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = `"` + strings.ReplaceAll(l, `"`, `'`) + `"`
	}
	return strings.Join(quoted, ", ")
}

// parseFeedback is the follow-up message sent when the model output cannot be used.
func parseFeedback(err error) string {
	return "The previous answer could not be used: " + err.Error() +
		". Reply again with valid JSON only, following the requested format exactly."
}

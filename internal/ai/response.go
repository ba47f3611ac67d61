package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kozaktomas/photo-annotator/internal/detection"
)

// boxScale is the normalized coordinate range used by the model.
const boxScale = 1000

// rawSegment is one object as described by the model.
type rawSegment struct {
	Label string    `json:"label"`
	Box2D []float64 `json:"box_2d"` // [y0, x0, y1, x1] normalized to 0..1000
	Mask  string    `json:"mask,omitempty"`
}

// Segment is a validated detection scaled to original image pixels.
type Segment struct {
	Label string
	Box   detection.Box
	Mask  string // data URL of the PNG mask, may be empty
}

// extractJSON pulls the JSON payload out of a model reply that may be wrapped
// in a ```json fenced block.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "```json"); start != -1 {
		body := content[start+len("```json"):]
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	if strings.HasPrefix(content, "```") {
		body := strings.TrimPrefix(content, "```")
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return content
}

// ParseSegments validates a model reply against the segmentation schema and
// scales the boxes to a width x height image. The reply is either a JSON array
// of objects or an object holding that array under "objects". Boxes that are
// empty after scaling are dropped; anything else off-schema is an error.
func ParseSegments(content string, width, height int) ([]Segment, error) {
	payload := extractJSON(content)
	if payload == "" {
		return nil, ErrNoResponse
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	raw, err := decodeSegments([]byte(payload))
	if err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, len(raw))
	for i, r := range raw {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: object %d has no label", ErrMalformedResponse, i)
		}
		if len(r.Box2D) != 4 {
			return nil, fmt.Errorf("%w: object %d has %d box coordinates, want 4", ErrMalformedResponse, i, len(r.Box2D))
		}
		for _, v := range r.Box2D {
			if v < 0 || v > boxScale {
				return nil, fmt.Errorf("%w: object %d coordinate %v out of range", ErrMalformedResponse, i, v)
			}
		}

		y0 := int(r.Box2D[0] * float64(height) / boxScale)
		x0 := int(r.Box2D[1] * float64(width) / boxScale)
		y1 := int(r.Box2D[2] * float64(height) / boxScale)
		x1 := int(r.Box2D[3] * float64(width) / boxScale)

		box, ok := detection.NewBox(x0, y0, x1, y1)
		if !ok {
			continue
		}
		segments = append(segments, Segment{Label: label, Box: box, Mask: r.Mask})
	}
	return segments, nil
}

func decodeSegments(payload []byte) ([]rawSegment, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && payload[0] == '{' {
		var wrapped struct {
			Objects *[]rawSegment `json:"objects"`
		}
		if err := json.Unmarshal(payload, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if wrapped.Objects == nil {
			return nil, fmt.Errorf("%w: missing \"objects\" array", ErrMalformedResponse)
		}
		return *wrapped.Objects, nil
	}

	var raw []rawSegment
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return raw, nil
}

// segmentsToSet groups segments by label, keeping model order.
func segmentsToSet(segments []Segment) detection.DetectionSet {
	set := make(detection.DetectionSet)
	for _, s := range segments {
		set.Add(s.Label, s.Box)
	}
	return set
}

// truncate shortens model output for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

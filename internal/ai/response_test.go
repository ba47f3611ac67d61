package ai

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kozaktomas/photo-annotator/internal/detection"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", `[{"label":"cat"}]`, `[{"label":"cat"}]`},
		{"json fence", "Here you go:\n```json\n[{\"label\":\"cat\"}]\n```\nDone.", `[{"label":"cat"}]`},
		{"bare fence", "```\n[]\n```", `[]`},
		{"whitespace", "  \n[]\n ", `[]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.content); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestParseSegments_ScalesToOriginalSize(t *testing.T) {
	content := `[{"label": "cat", "box_2d": [100, 200, 500, 600]}]`

	segments, err := ParseSegments(content, 2000, 1000)
	if err != nil {
		t.Fatalf("ParseSegments failed: %v", err)
	}

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	want := detection.Box{X0: 400, Y0: 100, X1: 1200, Y1: 500}
	if segments[0].Box != want {
		t.Errorf("expected %v, got %v", want, segments[0].Box)
	}
	if segments[0].Label != "cat" {
		t.Errorf("expected label cat, got %s", segments[0].Label)
	}
}

func TestParseSegments_ObjectsWrapper(t *testing.T) {
	content := `{"objects": [{"label": "dog", "box_2d": [0, 0, 1000, 1000]}]}`

	segments, err := ParseSegments(content, 100, 50)
	if err != nil {
		t.Fatalf("ParseSegments failed: %v", err)
	}

	if len(segments) != 1 || segments[0].Box != (detection.Box{X0: 0, Y0: 0, X1: 100, Y1: 50}) {
		t.Errorf("unexpected segments %v", segments)
	}
}

func TestParseSegments_EmptyArrayIsValid(t *testing.T) {
	segments, err := ParseSegments("[]", 100, 100)
	if err != nil {
		t.Fatalf("expected empty array to parse, got %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("expected no segments, got %v", segments)
	}
}

func TestParseSegments_DropsDegenerateBoxes(t *testing.T) {
	content := `[
		{"label": "cat", "box_2d": [500, 500, 100, 900]},
		{"label": "cat", "box_2d": [100, 100, 101, 101]},
		{"label": "dog", "box_2d": [0, 0, 500, 500]}
	]`

	segments, err := ParseSegments(content, 100, 100)
	if err != nil {
		t.Fatalf("ParseSegments failed: %v", err)
	}

	if len(segments) != 1 || segments[0].Label != "dog" {
		t.Errorf("expected only the dog segment, got %v", segments)
	}
}

func TestParseSegments_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "I see a cat"},
		{"missing label", `[{"box_2d": [0, 0, 10, 10]}]`},
		{"short box", `[{"label": "cat", "box_2d": [0, 0, 10]}]`},
		{"out of range", `[{"label": "cat", "box_2d": [0, 0, 10, 1200]}]`},
		{"negative", `[{"label": "cat", "box_2d": [-1, 0, 10, 10]}]`},
		{"wrong type", `[{"label": "cat", "box_2d": "0,0,10,10"}]`},
		{"object without objects", `{"items": []}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSegments(tc.content, 100, 100)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestParseSegments_EmptyContent(t *testing.T) {
	_, err := ParseSegments("   ", 100, 100)
	if !errors.Is(err, ErrNoResponse) {
		t.Errorf("expected ErrNoResponse, got %v", err)
	}
}

func TestSegmentsToSet_GroupsByLabel(t *testing.T) {
	segments := []Segment{
		{Label: "cat", Box: detection.Box{X0: 0, Y0: 0, X1: 10, Y1: 10}},
		{Label: "dog", Box: detection.Box{X0: 5, Y0: 5, X1: 20, Y1: 20}},
		{Label: "cat", Box: detection.Box{X0: 50, Y0: 50, X1: 60, Y1: 60}},
	}

	set := segmentsToSet(segments)

	want := detection.DetectionSet{
		"cat": {{X0: 0, Y0: 0, X1: 10, Y1: 10}, {X0: 50, Y0: 50, X1: 60, Y1: 60}},
		"dog": {{X0: 5, Y0: 5, X1: 20, Y1: 20}},
	}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("expected %v, got %v", want, set)
	}
}

func TestBuildSegmentationPrompt_ListsLabels(t *testing.T) {
	prompt := buildSegmentationPrompt([]string{"cat", `red "car"`})

	if !strings.Contains(prompt, `"cat", "red 'car'"`) {
		t.Errorf("expected labels in prompt, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "{{LABELS}}") {
		t.Error("expected placeholder to be replaced")
	}
}

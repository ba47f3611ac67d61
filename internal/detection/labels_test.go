package detection

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCleanLabels(t *testing.T) {
	got := CleanLabels([]string{" Cat", "dog ", "", "CAT", "  ", "Dog"})
	want := []string{"cat", "dog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSplitLabels(t *testing.T) {
	if got := SplitLabels(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	got := SplitLabels("cat, Dog ,,person")
	want := []string{"cat", "dog", "person"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		detected  string
		requested string
		want      bool
	}{
		{"cat", "cat", true},
		{"Black Cat", "cat", true},
		{"caterpillar", "cat", true},
		{"dog", "cat", false},
		{"cat", "", false},
		{"CAT", " Cat ", true},
	}

	for _, tc := range tests {
		if got := Matches(tc.detected, tc.requested); got != tc.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.detected, tc.requested, got, tc.want)
		}
	}
}

func TestDetectionSet_FilterCopies(t *testing.T) {
	set := DetectionSet{
		"Cat":   {{0, 0, 10, 10}},
		"chair": {{5, 5, 20, 20}},
	}

	filtered := set.Filter([]string{"cat"})
	if len(filtered) != 1 {
		t.Fatalf("expected 1 label, got %d", len(filtered))
	}
	filtered["Cat"][0] = Box{1, 1, 2, 2}
	if set["Cat"][0] != (Box{0, 0, 10, 10}) {
		t.Error("expected Filter to return a copy")
	}
}

func TestDetectionSet_CloneKeepsEmptyLists(t *testing.T) {
	set := DetectionSet{"cat": {}, "Dog": {{0, 0, 5, 5}}}

	for name, got := range map[string]DetectionSet{
		"clone":  set.Clone(),
		"filter": set.Filter([]string{"cat", "dog"}),
	} {
		if got["cat"] == nil {
			t.Errorf("%s: expected empty list, got nil", name)
		}
		data, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if string(data) != `{"Dog":[[[0,0],[5,5]]],"cat":[]}` {
			t.Errorf("%s: unexpected JSON %s", name, data)
		}
	}
}

func TestDetectionSet_AddSkipsMalformed(t *testing.T) {
	set := DetectionSet{}
	set.Add("cat", Box{10, 10, 5, 5})
	set.Add("cat", Box{0, 0, 5, 5})
	if set.Count() != 1 {
		t.Errorf("expected 1 instance, got %d", set.Count())
	}
}

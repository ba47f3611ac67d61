package detection

import (
	"encoding/json"
	"testing"
)

func TestNewBox_RejectsDegenerate(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		ok             bool
	}{
		{"valid", 0, 0, 10, 10, true},
		{"zero width", 5, 0, 5, 10, false},
		{"zero height", 0, 5, 10, 5, false},
		{"inverted x", 10, 0, 0, 10, false},
		{"inverted y", 0, 10, 10, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := NewBox(tc.x0, tc.y0, tc.x1, tc.y1)
			if ok != tc.ok {
				t.Errorf("expected ok=%v, got %v", tc.ok, ok)
			}
		})
	}
}

func TestSame_WithinTolerance(t *testing.T) {
	a := Box{0, 0, 10, 10}
	b := Box{2, 1, 12, 11}

	if !Same(a, b, DefaultTolerance) {
		t.Error("expected boxes within tolerance to be the same")
	}
	if Same(a, b, 1) {
		t.Error("expected boxes to differ with tolerance 1")
	}
}

func TestSame_BoundaryIsInclusive(t *testing.T) {
	a := Box{0, 0, 10, 10}
	b := Box{5, 5, 15, 15}

	if !Same(a, b, 5) {
		t.Error("expected delta equal to tolerance to match")
	}
	if Same(a, Box{6, 0, 10, 10}, 5) {
		t.Error("expected delta above tolerance to differ")
	}
}

func TestSame_Symmetric(t *testing.T) {
	boxes := []Box{
		{0, 0, 10, 10},
		{3, 4, 13, 12},
		{100, 100, 200, 200},
		{96, 104, 203, 198},
		{-5, -5, 1, 1},
	}
	for _, tol := range []int{0, 1, 5, 10} {
		for _, a := range boxes {
			for _, b := range boxes {
				if Same(a, b, tol) != Same(b, a, tol) {
					t.Errorf("Same(%v, %v, %d) not symmetric", a, b, tol)
				}
			}
		}
	}
}

func TestBox_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Box{10, 20, 50, 60})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "[[10,20],[50,60]]" {
		t.Errorf("unexpected encoding %s", data)
	}

	var b Box
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if b != (Box{10, 20, 50, 60}) {
		t.Errorf("unexpected box %v", b)
	}
}

func TestBox_UnmarshalRejectsInvalid(t *testing.T) {
	var b Box
	if err := json.Unmarshal([]byte("[[50,50],[10,10]]"), &b); err == nil {
		t.Error("expected error for inverted box")
	}
}

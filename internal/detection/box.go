// Package detection holds the detection data model together with the
// comparison, label matching and deduplication rules applied to it.
package detection

import (
	"encoding/json"
	"fmt"
)

// DefaultTolerance is the pixel tolerance under which two boxes are
// considered the same physical detection.
const DefaultTolerance = 5

// Box is an axis-aligned rectangle in original image pixel coordinates.
// (X0, Y0) is the top-left corner and (X1, Y1) the bottom-right one.
type Box struct {
	X0, Y0 int
	X1, Y1 int
}

// NewBox builds a box and reports whether it is well formed.
// Boxes with x0 >= x1 or y0 >= y1 must be discarded by the caller.
func NewBox(x0, y0, x1, y1 int) (Box, bool) {
	if x0 >= x1 || y0 >= y1 {
		return Box{}, false
	}
	return Box{X0: x0, Y0: y0, X1: x1, Y1: y1}, true
}

// Width returns the horizontal extent of the box.
func (b Box) Width() int { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b Box) Height() int { return b.Y1 - b.Y0 }

func (b Box) String() string {
	return fmt.Sprintf("[(%d,%d),(%d,%d)]", b.X0, b.Y0, b.X1, b.Y1)
}

// MarshalJSON encodes the box as [[x0,y0],[x1,y1]].
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]int{{b.X0, b.Y0}, {b.X1, b.Y1}})
}

// UnmarshalJSON decodes a box from [[x0,y0],[x1,y1]] and rejects malformed boxes.
func (b *Box) UnmarshalJSON(data []byte) error {
	var pts [2][2]int
	if err := json.Unmarshal(data, &pts); err != nil {
		return fmt.Errorf("decoding box: %w", err)
	}
	box, ok := NewBox(pts[0][0], pts[0][1], pts[1][0], pts[1][1])
	if !ok {
		return fmt.Errorf("invalid box %v", pts)
	}
	*b = box
	return nil
}

// Same reports whether a and b describe the same detection: every coordinate
// delta must be within tolerance.
func Same(a, b Box, tolerance int) bool {
	return abs(a.X0-b.X0) <= tolerance &&
		abs(a.Y0-b.Y0) <= tolerance &&
		abs(a.X1-b.X1) <= tolerance &&
		abs(a.Y1-b.Y1) <= tolerance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

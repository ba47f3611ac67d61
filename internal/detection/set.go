package detection

import "sort"

// DetectionSet maps a detected label, in its original casing, to the boxes of
// every instance found for it.
type DetectionSet map[string][]Box

// Clone returns a deep copy of the set.
func (s DetectionSet) Clone() DetectionSet {
	out := make(DetectionSet, len(s))
	for label, boxes := range s {
		out[label] = CloneBoxes(boxes)
	}
	return out
}

// Filter returns a copy holding only the labels that match a requested label.
func (s DetectionSet) Filter(requested []string) DetectionSet {
	out := make(DetectionSet)
	for label, boxes := range s {
		if MatchesAny(label, requested) {
			out[label] = CloneBoxes(boxes)
		}
	}
	return out
}

// CloneBoxes copies boxes. The copy is never nil, so an empty label still
// encodes as [] rather than null.
func CloneBoxes(boxes []Box) []Box {
	out := make([]Box, len(boxes))
	copy(out, boxes)
	return out
}

// Labels returns the label keys in sorted order.
func (s DetectionSet) Labels() []string {
	labels := make([]string, 0, len(s))
	for label := range s {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Count returns the total number of instances across all labels.
func (s DetectionSet) Count() int {
	n := 0
	for _, boxes := range s {
		n += len(boxes)
	}
	return n
}

// Add appends a box to label, ignoring malformed boxes.
func (s DetectionSet) Add(label string, b Box) {
	if b.X0 >= b.X1 || b.Y0 >= b.Y1 {
		return
	}
	s[label] = append(s[label], b)
}

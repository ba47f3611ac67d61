package detection

// Dedupe collapses near-duplicate instances per label. The first instance of
// each cluster is kept; a later instance is accepted only if it is not Same as
// any instance already accepted for that label. The input is not modified.
func Dedupe(set DetectionSet, tolerance int) DetectionSet {
	out := make(DetectionSet, len(set))
	for label, boxes := range set {
		out[label] = dedupeBoxes(boxes, tolerance)
	}
	return out
}

func dedupeBoxes(boxes []Box, tolerance int) []Box {
	if len(boxes) == 0 {
		return []Box{}
	}
	kept := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		duplicate := false
		for _, k := range kept {
			if Same(b, k, tolerance) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, b)
		}
	}
	return kept
}

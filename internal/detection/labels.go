package detection

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel trims a requested label and folds it to lower case.
func NormalizeLabel(label string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(label)))
}

// CleanLabels normalizes requested labels, dropping blanks and repeats while
// keeping the first-seen order.
func CleanLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	clean := make([]string, 0, len(labels))
	for _, l := range labels {
		n := NormalizeLabel(l)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		clean = append(clean, n)
	}
	return clean
}

// SplitLabels parses a comma separated label list as sent by upload forms.
func SplitLabels(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return CleanLabels(strings.Split(s, ","))
}

// Matches reports whether a detected label satisfies a requested one.
// Matching is case-insensitive substring containment, so "cat" matches
// "Caterpillar" as well as "black cat".
func Matches(detected, requested string) bool {
	requested = NormalizeLabel(requested)
	if requested == "" {
		return false
	}
	return strings.Contains(NormalizeLabel(detected), requested)
}

// MatchesAny reports whether detected satisfies at least one requested label.
func MatchesAny(detected string, requested []string) bool {
	for _, r := range requested {
		if Matches(detected, r) {
			return true
		}
	}
	return false
}

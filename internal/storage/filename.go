package storage

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AllowedExtensions lists the image types accepted for upload.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

// AllowedFile reports whether filename carries an allowed image extension.
func AllowedFile(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i == -1 {
		return false
	}
	ext := strings.ToLower(filename[i+1:])
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SecureFilename turns an uploaded file name into a safe, flat file name.
// It may return an empty string when nothing usable is left.
func SecureFilename(name string) string {
	name = RemoveDiacritics(name)
	name = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if r == '/' || r == '\\' || r == filepath.Separator {
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), "_")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, name)
	return strings.Trim(name, "._")
}

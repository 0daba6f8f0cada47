package util

import (
	"errors"
	"strings"
	"unicode"
)

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns a caller-chosen résumé name into a single safe path
// segment. Separators become '_'; control characters and quotes are dropped so
// the name can sit inside a Content-Disposition header.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\':
			return '_'
		case r == '"', unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errInvalidFileName
	}
	return s, nil
}

package handlers

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for category fields.
const (
	maxNameLen = 100
	maxIconLen = 50
)

var (
	errInvalidParent = errors.New("parentId is not a valid id")
	errInvalidLevel  = errors.New("level must be 1 or 2")

	// hexColor matches presentation colors like "#0af" or "#00aaff".
	hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// validateCategoryInput checks category form inputs and returns the
// first problem found, or "" when the input is acceptable. Structural
// rules (uniqueness, parent level) belong to the category service; this
// only rejects shapes that could never be valid.
func validateCategoryInput(name, color string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 100 characters)."
	}
	if color != "" && !hexColor.MatchString(color) {
		return "Color must be a hex value like #336699."
	}
	return ""
}

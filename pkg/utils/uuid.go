package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NewUUID generates a new UUID
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// Slugify converts a string to a URL-friendly slug
func Slugify(s string) string {
	// Convert to lowercase
	s = strings.ToLower(s)

	// Replace spaces with hyphens
	s = strings.ReplaceAll(s, " ", "-")

	// Remove non-alphanumeric characters except hyphens
	reg := regexp.MustCompile("[^a-z0-9-]")
	s = reg.ReplaceAllString(s, "")

	// Remove multiple consecutive hyphens
	reg = regexp.MustCompile("-+")
	s = reg.ReplaceAllString(s, "-")

	// Trim hyphens from start and end
	s = strings.Trim(s, "-")

	return s
}

// documentNumberPattern matches formatted invoice and receipt numbers,
// e.g. INV-000042 or RCP-001204
var documentNumberPattern = regexp.MustCompile(`^[A-Z]+-[0-9]{6,}$`)

// FormatDocumentNumber renders a sequence value as a document number.
// Values past 999999 widen naturally.
func FormatDocumentNumber(prefix string, value int64) string {
	return fmt.Sprintf("%s-%06d", prefix, value)
}

// IsValidDocumentNumber reports whether s looks like a formatted
// invoice or receipt number
func IsValidDocumentNumber(s string) bool {
	return documentNumberPattern.MatchString(s)
}

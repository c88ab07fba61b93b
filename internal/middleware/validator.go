package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// tenant slugs: lowercase alphanumeric plus dash/underscore, 1-64 chars
var tenantIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateTenantID validates tenant identifier format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant is required")
	}
	if !tenantIDPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant format")
	}
	return nil
}

// ValidateDocumentID validates that the id is a UUID
func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}
	return nil
}

// ValidateLimit clamps a limit parameter into [1, max]
func ValidateLimit(limit, max int) int {
	if limit <= 0 {
		return 20
	}
	if limit > max {
		return max
	}
	return limit
}

// SanitizeString strips control characters and trims whitespace
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

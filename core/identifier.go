package core

import (
	"fmt"
	"strings"
)

// ValidateIdentifier accepts tenant and unit names built from
// [A-Za-z0-9_-] only. The input is never rewritten: any character outside
// the set fails validation rather than being silently dropped.
func ValidateIdentifier(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("core: identifier is required: %w", ErrInvalidIdentifier)
	}
	stripped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, id)
	if stripped == "" || stripped != id {
		return "", fmt.Errorf("core: identifier %q contains invalid characters: %w", id, ErrInvalidIdentifier)
	}
	return stripped, nil
}

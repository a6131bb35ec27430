package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Lookups and uniqueness use the normalized form; the original spelling is kept for display.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// trimPtr trims a string pointer, returning nil if result is empty.
func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

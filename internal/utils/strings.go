package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var barcodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{2,31}$`)

// NormalizeBarcode cleans a raw scanner payload: control characters
// (scanner suffix CR/LF/TAB) and Code 39 start/stop asterisks are dropped,
// the rest is trimmed and upper-cased.
func NormalizeBarcode(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, "*")
	return strings.ToUpper(strings.TrimSpace(cleaned))
}

// IsValidBarcode reports whether a normalized payload looks like a customer ID.
func IsValidBarcode(code string) bool {
	return barcodePattern.MatchString(code)
}

// NormalizePhone normalizes phone numbers (basic cleaning)
func NormalizePhone(phone string) string {
	// Remove all non-digit characters except + at the beginning
	cleaned := strings.TrimSpace(phone)
	if cleaned == "" {
		return ""
	}

	var result strings.Builder
	for i, r := range cleaned {
		if i == 0 && r == '+' {
			result.WriteRune(r)
		} else if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

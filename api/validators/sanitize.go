package validators

import "strings"

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// SanitizeCode normalizes a user-typed coupon code.
func SanitizeCode(input string) string {
	return strings.ToUpper(SanitizeString(input, 32))
}

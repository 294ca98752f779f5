package validators

import "strings"

// SanitizeString normalizes free-text identifiers arriving in ingest
// payloads: surrounding whitespace is dropped and the value is capped at
// maxLen bytes (0 disables the cap). Rows keyed by the result stay stable
// no matter how sloppily the producer quoted them.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

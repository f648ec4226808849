package ai

import "strings"

// normalizeAPIKey strips formatting noise that commonly appears in env-var values.
func normalizeAPIKey(raw string) string {
	key := strings.Trim(strings.TrimSpace(raw), `"'`)
	if len(key) >= len("bearer ") && strings.EqualFold(key[:len("bearer ")], "bearer ") {
		key = key[len("bearer "):]
	}

	// Literal escapes first, then anything outside visible ASCII.
	key = strings.NewReplacer(`\r`, "", `\n`, "", `\t`, "").Replace(key)
	filtered := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		if b := key[i]; b >= 33 && b <= 126 {
			filtered = append(filtered, b)
		}
	}
	return string(filtered)
}

// ResolveAPIKey returns the first candidate that is non-empty after normalization
func ResolveAPIKey(candidates ...string) string {
	for _, c := range candidates {
		if key := normalizeAPIKey(c); key != "" {
			return key
		}
	}
	return ""
}

package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DefaultMaxStringLength caps strings destined for log lines and error
// messages.
const DefaultMaxStringLength = 500

// JSONToString renders object as JSON for logging. Pass true to pretty-print
// with two-space indentation. A marshalling failure yields a JSON error
// object instead of panicking, so the result is always loggable.
func JSONToString(object any, indent ...bool) string {
	var encoded []byte
	var err error
	if len(indent) > 0 && indent[0] {
		encoded, err = json.MarshalIndent(object, "", "  ")
	} else {
		encoded, err = json.Marshal(object)
	}
	if err != nil {
		return `{"error": "failed to marshal to JSON: ` + err.Error() + `"}`
	}
	return string(encoded)
}

// TruncateString shortens s to at most maxLen characters plus a suffix noting
// the original length. A non-positive maxLen falls back to
// [DefaultMaxStringLength].
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// TruncateStringDefault truncates s at [DefaultMaxStringLength].
func TruncateStringDefault(s string) string {
	return TruncateString(s, DefaultMaxStringLength)
}

var slugPattern = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Slugify converts s into a filesystem-safe identifier: every run of
// non-alphanumeric characters collapses to a single underscore, with leading
// and trailing underscores trimmed.
func Slugify(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(s, "_"), "_")
}
